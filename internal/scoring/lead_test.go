package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }

func TestLeadScore_AllSignals(t *testing.T) {
	// rating=4.5, reviews=120, 2 gaps, never contacted:
	// round(4.5*6 + min(12,20) + min(20,30) + 20) = 27+12+20+20 = 79
	score := LeadScore(LeadSignals{
		Rating:          f64(4.5),
		ReviewCount:     intp(120),
		MissingProducts: 2,
	})
	assert.Equal(t, 79, score)
}

func TestLeadScore_AllAbsent(t *testing.T) {
	// Only the never-contacted bonus applies.
	assert.Equal(t, 20, LeadScore(LeadSignals{}))
}

func TestLeadScore_Bounds(t *testing.T) {
	cases := []LeadSignals{
		{},
		{Rating: f64(5.0), ReviewCount: intp(100000), MissingProducts: 50},
		{Rating: f64(0), ReviewCount: intp(0)},
		{MissingProducts: 3},
	}
	for _, s := range cases {
		score := LeadScore(s)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestLeadScore_Cap(t *testing.T) {
	// 30 + 20 + 30 + 20 = 100, saturated.
	score := LeadScore(LeadSignals{
		Rating:          f64(5.0),
		ReviewCount:     intp(5000),
		MissingProducts: 10,
	})
	assert.Equal(t, 100, score)
}

func TestLeadScore_MissingProductsMonotone(t *testing.T) {
	base := LeadSignals{Rating: f64(4.0), ReviewCount: intp(50)}

	prev := -1
	for n := 0; n <= 3; n++ {
		s := base
		s.MissingProducts = n
		score := LeadScore(s)
		assert.Greater(t, score, prev, "score must strictly increase up to the cap")
		prev = score
	}

	// Beyond the 30-point cap the score must not decrease.
	capped := prev
	for n := 4; n <= 8; n++ {
		s := base
		s.MissingProducts = n
		assert.Equal(t, capped, LeadScore(s))
	}
}

func TestLeadScoreAt_Recency(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) *time.Time {
		ts := now.AddDate(0, 0, -d)
		return &ts
	}

	cases := []struct {
		name    string
		contact *time.Time
		want    int
	}{
		{"never contacted", nil, 20},
		{"cold >90d", daysAgo(120), 20},
		{"warm 30-90d", daysAgo(45), 10},
		{"recent <30d", daysAgo(7), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := LeadScoreAt(LeadSignals{LastContactDate: tc.contact}, now)
			assert.Equal(t, tc.want, score)
		})
	}
}
