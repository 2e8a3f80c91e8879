package model

import "time"

// VisitOutcome classifies the result of a sales call.
type VisitOutcome string

const (
	VisitOutcomeSuccessful VisitOutcome = "successful"
	VisitOutcomeNoInterest VisitOutcome = "no_interest"
	VisitOutcomeFollowUp   VisitOutcome = "follow_up"
)

// Visit records one sales call to one venue. Visits are append-only: they are
// never edited or deleted after creation.
type Visit struct {
	ID              string       `json:"id"`
	VenueID         string       `json:"venue_id"`
	VisitDate       time.Time    `json:"visit_date"`
	SalesPerson     string       `json:"sales_person"`
	Outcome         VisitOutcome `json:"outcome"`
	DurationMinutes *int         `json:"duration_minutes,omitempty"`
	OrderPlaced     bool         `json:"order_placed"`
	OrderValue      *float64     `json:"order_value,omitempty"` // EUR
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivityTypeVisit  ActivityType = "visit"
	ActivityTypeImport ActivityType = "import"
	ActivityTypeNote   ActivityType = "note"
)

// Activity is an append-only log entry describing something that happened to
// a venue.
type Activity struct {
	ID          string       `json:"id"`
	VenueID     string       `json:"venue_id"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	SalesPerson string       `json:"sales_person,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
