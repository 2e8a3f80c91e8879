package api

import (
	"net/http"
	"strconv"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/scoring"
	"github.com/horeca-group/horeca-cli/internal/store"
)

// opportunityView is one ranked row of the gap-analysis listing.
type opportunityView struct {
	Venue                   *model.Venue   `json:"venue"`
	OpportunityScore        float64        `json:"opportunity_score"`
	Priority                model.Priority `json:"priority"`
	EstimatedMonthlyRevenue float64        `json:"estimated_monthly_revenue"`
}

// opportunitySummary aggregates the listing for the dashboard header.
type opportunitySummary struct {
	Count                        int     `json:"count"`
	HighValueCount               int     `json:"high_value_count"`
	TotalEstimatedMonthlyRevenue float64 `json:"total_estimated_monthly_revenue"`
}

type opportunitiesResponse struct {
	Summary       opportunitySummary `json:"summary"`
	Opportunities []opportunityView  `json:"opportunities"`
}

// listOpportunities ranks non-customer venues by opportunity score.
func (s *Server) listOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	venues, err := s.store.ListVenues(r.Context(), store.VenueFilter{City: q.Get("city")})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// Existing customers are not opportunities.
	candidates := make([]*model.Venue, 0, len(venues))
	for i := range venues {
		if venues[i].Status == model.VenueStatusCustomer {
			continue
		}
		candidates = append(candidates, &venues[i])
	}

	ranked := scoring.RankOpportunities(candidates, s.bander)

	if v := q.Get("min_score"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_score must be a number")
			return
		}
		kept := ranked[:0]
		for _, opp := range ranked {
			if opp.Score >= min {
				kept = append(kept, opp)
			}
		}
		ranked = kept
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	resp := opportunitiesResponse{
		Opportunities: make([]opportunityView, len(ranked)),
	}
	for i, opp := range ranked {
		revenue := scoring.EstimateMonthlyRevenue(opp.Venue)
		resp.Opportunities[i] = opportunityView{
			Venue:                   opp.Venue,
			OpportunityScore:        opp.Score,
			Priority:                opp.Priority,
			EstimatedMonthlyRevenue: revenue,
		}
		resp.Summary.Count++
		if opp.Priority == model.PriorityHigh {
			resp.Summary.HighValueCount++
		}
		resp.Summary.TotalEstimatedMonthlyRevenue += revenue
	}
	writeJSON(w, http.StatusOK, resp)
}
