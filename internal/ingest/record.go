// Package ingest loads venue records from CSV and XLSX files produced by
// external discovery tooling and writes them into the store.
package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/scoring"
)

// VenueRecord is one raw row from an import file, keyed by the normalized
// header names the discovery exports use.
type VenueRecord struct {
	Name         string
	Address      string
	City         string
	PostalCode   string
	Latitude     float64
	Longitude    float64
	PhoneNumber  string
	Website      string
	BusinessType string
	PriceLevel   *int
	Rating       *float64
	ReviewCount  *int
	MenuText     string
	AssignedTo   string
}

// columnAliases maps header spellings seen in the wild to canonical names.
var columnAliases = map[string]string{
	"nombre":        "name",
	"direccion":     "address",
	"dirección":     "address",
	"ciudad":        "city",
	"cp":            "postal_code",
	"codigo_postal": "postal_code",
	"lat":           "latitude",
	"lng":           "longitude",
	"lon":           "longitude",
	"telefono":      "phone_number",
	"teléfono":      "phone_number",
	"phone":         "phone_number",
	"web":           "website",
	"tipo":          "business_type",
	"type":          "business_type",
	"precio":        "price_level",
	"valoracion":    "rating",
	"valoración":    "rating",
	"resenas":       "review_count",
	"reviews":       "review_count",
	"carta":         "menu_text",
	"menu":          "menu_text",
	"comercial":     "assigned_to",
}

func canonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.ReplaceAll(h, " ", "_")
	if canonical, ok := columnAliases[h]; ok {
		return canonical
	}
	return h
}

// parseRecord builds a VenueRecord from one row using the header index map.
// Name and coordinates are required; everything else is optional.
func parseRecord(columns map[string]int, row []string) (*VenueRecord, error) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := &VenueRecord{
		Name:         get("name"),
		Address:      get("address"),
		City:         get("city"),
		PostalCode:   get("postal_code"),
		PhoneNumber:  get("phone_number"),
		Website:      get("website"),
		BusinessType: strings.ToLower(get("business_type")),
		MenuText:     get("menu_text"),
		AssignedTo:   get("assigned_to"),
	}
	if rec.Name == "" {
		return nil, eris.New("ingest: row has no name")
	}

	lat, err := strconv.ParseFloat(get("latitude"), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: row %q: bad latitude", rec.Name)
	}
	lng, err := strconv.ParseFloat(get("longitude"), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: row %q: bad longitude", rec.Name)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, eris.Errorf("ingest: row %q: coordinates out of range", rec.Name)
	}
	rec.Latitude, rec.Longitude = lat, lng

	if s := get("price_level"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 4 {
			return nil, eris.Errorf("ingest: row %q: bad price level %q", rec.Name, s)
		}
		rec.PriceLevel = &n
	}
	if s := get("rating"); s != "" {
		// Spanish exports use comma decimals.
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil || f < 0 || f > 5 {
			return nil, eris.Errorf("ingest: row %q: bad rating %q", rec.Name, s)
		}
		rec.Rating = &f
	}
	if s := get("review_count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, eris.Errorf("ingest: row %q: bad review count %q", rec.Name, s)
		}
		rec.ReviewCount = &n
	}

	return rec, nil
}

// ToVenue converts the record to a venue with its initial lead score. New
// imports start at the top of the funnel with medium display priority.
func (r *VenueRecord) ToVenue() *model.Venue {
	businessType := model.BusinessType(r.BusinessType)
	switch businessType {
	case model.BusinessTypeRestaurant, model.BusinessTypeBar, model.BusinessTypeCafe:
	default:
		businessType = model.BusinessTypeRestaurant
	}

	v := &model.Venue{
		Name:        r.Name,
		Address:     r.Address,
		City:        r.City,
		PostalCode:  r.PostalCode,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		PhoneNumber: r.PhoneNumber,
		Website:     r.Website,
		Type:        businessType,
		PriceLevel:  r.PriceLevel,
		Rating:      r.Rating,
		ReviewCount: r.ReviewCount,
		MenuText:    r.MenuText,
		AssignedTo:  r.AssignedTo,
		Status:      model.VenueStatusNew,
		Priority:    model.PriorityMedium,
	}
	v.LeadScore = scoring.LeadScore(scoring.LeadSignals{
		Rating:      v.Rating,
		ReviewCount: v.ReviewCount,
	})
	return v
}
