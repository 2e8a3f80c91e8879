// Package scoring converts venue signals into sales priority metrics.
//
// Two distinct scores live here. The lead score is a 0-100 follow-up
// priority for venues already in the funnel. The opportunity score is an
// unbounded ranking metric for brand-coverage gap analysis. They share a
// numeric style but not a scale; keep them separate.
package scoring

import (
	"math"
	"time"
)

// Lead score component caps.
const (
	reviewComponentCap  = 20.0
	missingComponentCap = 30.0
	leadScoreCap        = 100.0

	// Recency bonus: a venue never contacted, or cold for over 90 days,
	// earns the full bonus; 30-90 days earns half; under 30 days nothing.
	recencyFullBonus = 20.0
	recencyHalfBonus = 10.0
	recencyColdDays  = 90
	recencyWarmDays  = 30
)

// LeadSignals holds the inputs to the lead score. Nil pointers mean the
// signal was not reported by any source.
type LeadSignals struct {
	Rating          *float64
	ReviewCount     *int
	MissingProducts int // count of identified product gaps
	LastContactDate *time.Time
}

// LeadScore computes the 0-100 follow-up priority for a venue. It is a pure
// function of its inputs and must be recomputed whenever rating, review
// count, the missing-products list, or the last contact date changes.
//
// Components (additive, capped per component, then capped at 100):
//   - rating * 6 (max 30 at a 5.0 rating)
//   - min(reviewCount/10, 20)
//   - min(missingCount*10, 30)
//   - recency: 20 if never contacted or >90 days cold, 10 if 30-90 days,
//     0 if contacted within 30 days
//
// With every signal absent the score is 20: only the never-contacted bonus
// applies.
func LeadScore(s LeadSignals) int {
	return LeadScoreAt(s, time.Now())
}

// LeadScoreAt is LeadScore evaluated against an explicit reference time,
// which keeps the recency component testable.
func LeadScoreAt(s LeadSignals, now time.Time) int {
	var score float64

	if s.Rating != nil {
		score += *s.Rating * 6
	}
	if s.ReviewCount != nil {
		score += math.Min(float64(*s.ReviewCount)/10, reviewComponentCap)
	}
	score += math.Min(float64(s.MissingProducts)*10, missingComponentCap)

	switch {
	case s.LastContactDate == nil:
		score += recencyFullBonus
	default:
		days := int(now.Sub(*s.LastContactDate).Hours() / 24)
		switch {
		case days > recencyColdDays:
			score += recencyFullBonus
		case days > recencyWarmDays:
			score += recencyHalfBonus
		}
	}

	return int(math.Round(math.Min(score, leadScoreCap)))
}
