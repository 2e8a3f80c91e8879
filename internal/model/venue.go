package model

import "time"

// VenueStatus represents a venue's position in the sales funnel.
type VenueStatus string

const (
	VenueStatusNew           VenueStatus = "new"
	VenueStatusContacted     VenueStatus = "contacted"
	VenueStatusInterested    VenueStatus = "interested"
	VenueStatusNotInterested VenueStatus = "not_interested"
	VenueStatusCustomer      VenueStatus = "customer"
)

// BusinessType classifies the kind of establishment.
type BusinessType string

const (
	BusinessTypeRestaurant BusinessType = "restaurant"
	BusinessTypeBar        BusinessType = "bar"
	BusinessTypeCafe       BusinessType = "cafe"
)

// Priority is the display band derived from a score.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ProductGap is a brand product a venue does not currently carry.
type ProductGap struct {
	Brand      string  `json:"brand"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Venue represents a tracked establishment: a potential or existing customer.
type Venue struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	City        string       `json:"city"`
	PostalCode  string       `json:"postal_code,omitempty"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	PhoneNumber string       `json:"phone_number,omitempty"`
	Website     string       `json:"website,omitempty"`
	Type        BusinessType `json:"business_type"`

	// Commercial attributes. Nil means the source did not report a value.
	PriceLevel  *int     `json:"price_level,omitempty"` // ordinal 1-4
	Rating      *float64 `json:"rating,omitempty"`      // 0.0-5.0
	ReviewCount *int     `json:"review_count,omitempty"`

	// Brand intelligence.
	CurrentProducts    []string     `json:"current_products"`
	MissingProducts    []ProductGap `json:"missing_products"`
	CompetitorProducts []string     `json:"competitor_products"`
	MenuText           string       `json:"menu_text,omitempty"`

	// Digital ordering / delivery platform presence.
	Platforms map[string]bool `json:"platforms,omitempty"`

	EstimatedWeeklyVisitors int `json:"estimated_weekly_visitors,omitempty"`

	// Sales state.
	LeadScore       int         `json:"lead_score"` // 0-100
	Priority        Priority    `json:"priority"`
	Status          VenueStatus `json:"status"`
	AssignedTo      string      `json:"assigned_to,omitempty"`
	LastContactDate *time.Time  `json:"last_contact_date,omitempty"`
	NextFollowUp    *time.Time  `json:"next_follow_up,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasProduct reports whether the venue already carries the given brand.
func (v *Venue) HasProduct(brand string) bool {
	for _, p := range v.CurrentProducts {
		if p == brand {
			return true
		}
	}
	return false
}

// HasCompetitorProducts reports whether any competitor product is on record.
func (v *Venue) HasCompetitorProducts() bool {
	return len(v.CompetitorProducts) > 0
}

// HasPlatformPresence reports whether any digital ordering platform flag is set.
func (v *Venue) HasPlatformPresence() bool {
	for _, present := range v.Platforms {
		if present {
			return true
		}
	}
	return false
}

// ApplyDetection merges a brand-detection result into the venue, keeping
// CurrentProducts and MissingProducts disjoint: a brand detected as present
// is added to the current set and dropped from the missing set.
func (v *Venue) ApplyDetection(found []string, missing []ProductGap) {
	for _, brand := range found {
		if !v.HasProduct(brand) {
			v.CurrentProducts = append(v.CurrentProducts, brand)
		}
	}

	present := make(map[string]bool, len(v.CurrentProducts))
	for _, p := range v.CurrentProducts {
		present[p] = true
	}

	merged := make([]ProductGap, 0, len(missing))
	for _, gap := range missing {
		if !present[gap.Brand] {
			merged = append(merged, gap)
		}
	}
	v.MissingProducts = merged
}

// VenueUpdate holds optional field changes for a venue. Nil fields are left
// untouched by the store.
type VenueUpdate struct {
	Name            *string       `json:"name,omitempty"`
	Address         *string       `json:"address,omitempty"`
	City            *string       `json:"city,omitempty"`
	PhoneNumber     *string       `json:"phone_number,omitempty"`
	Website         *string       `json:"website,omitempty"`
	Rating          *float64      `json:"rating,omitempty"`
	ReviewCount     *int          `json:"review_count,omitempty"`
	PriceLevel      *int          `json:"price_level,omitempty"`
	Status          *VenueStatus  `json:"status,omitempty"`
	AssignedTo      *string       `json:"assigned_to,omitempty"`
	NextFollowUp    *time.Time    `json:"next_follow_up,omitempty"`
	CurrentProducts *[]string     `json:"current_products,omitempty"`
	MissingProducts *[]ProductGap `json:"missing_products,omitempty"`
	Notes           *string       `json:"notes,omitempty"`
}
