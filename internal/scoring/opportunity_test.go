package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/horeca-group/horeca-cli/internal/model"
)

func TestOpportunityScore(t *testing.T) {
	// rating=4.0, priceLevel=3, visitors=1000, competitor, no platform:
	// 4.0*20 + 3*15 + 1000/100 + 10 = 80+45+10+10 = 145
	score := OpportunityScore(OpportunitySignals{
		Rating:                  f64(4.0),
		PriceLevel:              intp(3),
		EstimatedWeeklyVisitors: 1000,
		HasCompetitorProducts:   true,
	})
	assert.Equal(t, 145.0, score)
	assert.Equal(t, model.PriorityHigh, BandPriority(score))
}

func TestOpportunityScore_AbsentSignals(t *testing.T) {
	assert.Equal(t, 0.0, OpportunityScore(OpportunitySignals{}))
	assert.Equal(t, 5.0, OpportunityScore(OpportunitySignals{HasPlatformPresence: true}))
}

func TestBandPriority(t *testing.T) {
	assert.Equal(t, model.PriorityHigh, BandPriority(100))
	assert.Equal(t, model.PriorityMedium, BandPriority(99.9))
	assert.Equal(t, model.PriorityMedium, BandPriority(60))
	assert.Equal(t, model.PriorityLow, BandPriority(59.9))
	assert.Equal(t, model.PriorityLow, BandPriority(0))
}

func TestRankOpportunities_Deterministic(t *testing.T) {
	venues := []*model.Venue{
		{Name: "Bar Zurito", Rating: f64(4.0), PriceLevel: intp(2)},
		{Name: "Bar Amparo", Rating: f64(4.0), PriceLevel: intp(2)},
		{Name: "Cafe Sol", Rating: f64(4.5), PriceLevel: intp(3), EstimatedWeeklyVisitors: 500},
	}

	opps := RankOpportunities(venues, DefaultBander())

	// Cafe Sol: 4.5*20+45+5 = 140. The two bars tie at 110; name ascending
	// breaks the tie.
	assert.Equal(t, "Cafe Sol", opps[0].Venue.Name)
	assert.Equal(t, "Bar Amparo", opps[1].Venue.Name)
	assert.Equal(t, "Bar Zurito", opps[2].Venue.Name)

	again := RankOpportunities(venues, DefaultBander())
	for i := range opps {
		assert.Equal(t, opps[i].Venue.Name, again[i].Venue.Name)
	}
}

func TestRankOpportunities_RatingTieBreak(t *testing.T) {
	// Same score via different signals; higher rating wins the tie.
	// Alta: 4.0*20 + 30 = 110. Baja: 3.0*20 + 45 + 5 = 110.
	venues := []*model.Venue{
		{Name: "Baja", Rating: f64(3.0), PriceLevel: intp(3), Platforms: map[string]bool{"glovo": true}},
		{Name: "Alta", Rating: f64(4.0), PriceLevel: intp(2)},
	}
	opps := RankOpportunities(venues, DefaultBander())
	assert.Equal(t, 110.0, opps[0].Score)
	assert.Equal(t, 110.0, opps[1].Score)
	assert.Equal(t, "Alta", opps[0].Venue.Name)
}

func TestEstimateMonthlyRevenue(t *testing.T) {
	v := &model.Venue{PriceLevel: intp(3), EstimatedWeeklyVisitors: 1000}
	// 50*1.5 + 10 = 85
	assert.Equal(t, 85.0, EstimateMonthlyRevenue(v))

	// Absent price level defaults to 2.
	assert.Equal(t, 50.0, EstimateMonthlyRevenue(&model.Venue{}))
}
