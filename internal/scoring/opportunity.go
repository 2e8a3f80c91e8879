package scoring

import (
	"sort"

	"github.com/horeca-group/horeca-cli/internal/model"
)

// Banding thresholds for opportunity scores. Every call site bands through
// these constants; do not introduce a second threshold set per feature.
const (
	DefaultHighThreshold   = 100.0
	DefaultMediumThreshold = 60.0
)

// OpportunitySignals holds the inputs to the opportunity score.
type OpportunitySignals struct {
	Rating                  *float64
	PriceLevel              *int
	EstimatedWeeklyVisitors int
	HasCompetitorProducts   bool
	HasPlatformPresence     bool
}

// OpportunityScore computes the gap-analysis ranking score for a venue.
// Unlike the lead score it is not capped: a busy, highly rated venue with
// competitor products on the shelf can exceed 100.
//
//   - rating * 20
//   - priceLevel * 15
//   - weeklyVisitors / 100
//   - +10 when competitor products are on record
//   - +5 when the venue is on any digital ordering platform
func OpportunityScore(s OpportunitySignals) float64 {
	var score float64

	if s.Rating != nil {
		score += *s.Rating * 20
	}
	if s.PriceLevel != nil {
		score += float64(*s.PriceLevel) * 15
	}
	score += float64(s.EstimatedWeeklyVisitors) / 100

	if s.HasCompetitorProducts {
		score += 10
	}
	if s.HasPlatformPresence {
		score += 5
	}

	return score
}

// Bander maps raw scores to display priority bands.
type Bander struct {
	High   float64
	Medium float64
}

// DefaultBander returns the standard 100/60 thresholds.
func DefaultBander() Bander {
	return Bander{High: DefaultHighThreshold, Medium: DefaultMediumThreshold}
}

// Band maps a raw score to its priority band.
func (b Bander) Band(score float64) model.Priority {
	switch {
	case score >= b.High:
		return model.PriorityHigh
	case score >= b.Medium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// BandPriority maps a raw opportunity score to a band using the default
// thresholds. Banding is a presentation concern layered on the raw score;
// callers that need the number should use OpportunityScore directly.
func BandPriority(score float64) model.Priority {
	return DefaultBander().Band(score)
}

// Opportunity pairs a venue with its computed score for ranking.
type Opportunity struct {
	Venue    *model.Venue
	Score    float64
	Priority model.Priority
}

// RankOpportunities scores every venue and sorts descending by score, with
// deterministic tie-breaks: rating descending, then name ascending.
func RankOpportunities(venues []*model.Venue, bander Bander) []Opportunity {
	opps := make([]Opportunity, 0, len(venues))
	for _, v := range venues {
		score := OpportunityScore(OpportunitySignals{
			Rating:                  v.Rating,
			PriceLevel:              v.PriceLevel,
			EstimatedWeeklyVisitors: v.EstimatedWeeklyVisitors,
			HasCompetitorProducts:   v.HasCompetitorProducts(),
			HasPlatformPresence:     v.HasPlatformPresence(),
		})
		opps = append(opps, Opportunity{
			Venue:    v,
			Score:    score,
			Priority: bander.Band(score),
		})
	}

	sort.SliceStable(opps, func(i, j int) bool {
		if opps[i].Score != opps[j].Score {
			return opps[i].Score > opps[j].Score
		}
		ri, rj := ratingOrZero(opps[i].Venue), ratingOrZero(opps[j].Venue)
		if ri != rj {
			return ri > rj
		}
		return opps[i].Venue.Name < opps[j].Venue.Name
	})

	return opps
}

// EstimateMonthlyRevenue returns the rough monthly revenue potential in EUR
// for a single opportunity venue: a €50 base scaled by price level, plus a
// foot-traffic bonus.
func EstimateMonthlyRevenue(v *model.Venue) float64 {
	const base = 50.0
	priceLevel := 2
	if v.PriceLevel != nil {
		priceLevel = *v.PriceLevel
	}
	multiplier := float64(priceLevel) * 0.5
	visitorBonus := float64(v.EstimatedWeeklyVisitors) / 1000 * 10
	return base*multiplier + visitorBonus
}

func ratingOrZero(v *model.Venue) float64 {
	if v.Rating == nil {
		return 0
	}
	return *v.Rating
}
