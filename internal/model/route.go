package model

import "time"

// RouteStatus represents the execution state of a planned route.
type RouteStatus string

const (
	RouteStatusPlanned    RouteStatus = "planned"
	RouteStatusInProgress RouteStatus = "in_progress"
	RouteStatusCompleted  RouteStatus = "completed"
)

// Route is an ordered, date-scoped sequence of venue visits for one salesperson.
type Route struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	SalesPerson string      `json:"sales_person"`
	PlannedDate time.Time   `json:"planned_date"`
	Status      RouteStatus `json:"status"`

	// Optional explicit starting point. Both are set or both are nil.
	StartLat *float64 `json:"start_lat,omitempty"`
	StartLng *float64 `json:"start_lng,omitempty"`

	// Computed at creation time and stored, not re-derived on read.
	TotalDistanceKm  float64 `json:"total_distance_km"`
	EstimatedMinutes int     `json:"estimated_minutes"`

	Stops []RouteStop `json:"stops"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteStop is one venue within a route. OrderIndex values form a contiguous
// 0-based sequence with no gaps or duplicates.
type RouteStop struct {
	ID         string     `json:"id"`
	RouteID    string     `json:"route_id"`
	VenueID    string     `json:"venue_id"`
	OrderIndex int        `json:"order_index"`
	Visited    bool       `json:"visited"`
	VisitedAt  *time.Time `json:"visited_at,omitempty"`

	// Venue is populated on reads that join the venue row.
	Venue *Venue `json:"venue,omitempty"`
}

// AllStopsVisited reports whether every stop on the route has been visited.
// Returns false for a route with no stops.
func (r *Route) AllStopsVisited() bool {
	if len(r.Stops) == 0 {
		return false
	}
	for _, s := range r.Stops {
		if !s.Visited {
			return false
		}
	}
	return true
}
