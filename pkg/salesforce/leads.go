package salesforce

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
)

// LeadPusher converts qualified venues into Salesforce Leads.
type LeadPusher struct {
	client Client
}

// NewLeadPusher creates a LeadPusher using the given client.
func NewLeadPusher(client Client) *LeadPusher {
	return &LeadPusher{client: client}
}

// PushSummary reports the outcome of a lead push.
type PushSummary struct {
	Pushed int
	Failed int
	Errors []string
}

// leadRecord maps a venue to Salesforce Lead fields. Company is mandatory on
// Lead; LastName is mandatory too, so the venue name doubles for both.
func leadRecord(v *model.Venue) map[string]any {
	record := map[string]any{
		"Company":     v.Name,
		"LastName":    v.Name,
		"Street":      v.Address,
		"City":        v.City,
		"PostalCode":  v.PostalCode,
		"Country":     "Spain",
		"Phone":       v.PhoneNumber,
		"Website":     v.Website,
		"LeadSource":  "Field Intelligence",
		"Description": leadDescription(v),
		"Rating":      string(v.Priority),
	}
	return record
}

func leadDescription(v *model.Venue) string {
	desc := fmt.Sprintf("Lead score %d/100, %s", v.LeadScore, v.Type)
	if len(v.MissingProducts) > 0 {
		brands := make([]string, len(v.MissingProducts))
		for i, gap := range v.MissingProducts {
			brands[i] = gap.Brand
		}
		desc += ". Product gaps: " + strings.Join(brands, ", ")
	}
	return desc
}

// Push inserts the venues as Leads in one collection request. Partial
// failures are reported per record, not fatal.
func (p *LeadPusher) Push(ctx context.Context, venues []*model.Venue) (*PushSummary, error) {
	if len(venues) == 0 {
		return &PushSummary{}, nil
	}

	records := make([]map[string]any, len(venues))
	for i, v := range venues {
		records[i] = leadRecord(v)
	}

	results, err := p.client.InsertCollection(ctx, "Lead", records)
	if err != nil {
		return nil, err
	}

	summary := &PushSummary{}
	for i, r := range results {
		if r.Success {
			summary.Pushed++
			continue
		}
		summary.Failed++
		for _, msg := range r.Errors {
			summary.Errors = append(summary.Errors, venues[i].Name+": "+msg)
		}
	}

	zap.L().Info("crm lead push finished",
		zap.Int("pushed", summary.Pushed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
