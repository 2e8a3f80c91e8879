// Package store persists venues, routes, visits, and activities behind a
// driver-agnostic interface with Postgres and SQLite implementations.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/horeca-group/horeca-cli/internal/model"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = eris.New("store: not found")

// VenueFilter specifies criteria for listing venues.
type VenueFilter struct {
	City       string            `json:"city,omitempty"`
	Status     model.VenueStatus `json:"status,omitempty"`
	Priority   model.Priority    `json:"priority,omitempty"`
	AssignedTo string            `json:"assigned_to,omitempty"`
	MinScore   int               `json:"min_score,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Offset     int               `json:"offset,omitempty"`
}

// RouteFilter specifies criteria for listing routes.
type RouteFilter struct {
	SalesPerson string            `json:"sales_person,omitempty"`
	Status      model.RouteStatus `json:"status,omitempty"`
}

// VisitFilter specifies criteria for listing visits.
type VisitFilter struct {
	VenueID     string `json:"venue_id,omitempty"`
	SalesPerson string `json:"sales_person,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// CityCount is one row of the top-cities aggregate.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// Stats holds the dashboard aggregates.
type Stats struct {
	TotalVenues      int              `json:"total_venues"`
	HighPriority     int              `json:"high_priority"`
	NewVenues        int              `json:"new_venues"`
	Contacted        int              `json:"contacted"`
	Customers        int              `json:"customers"`
	TotalVisits      int              `json:"total_visits"`
	SuccessfulVisits int              `json:"successful_visits"`
	TotalRevenue     float64          `json:"total_revenue"`
	TopCities        []CityCount      `json:"top_cities"`
	RecentActivity   []model.Activity `json:"recent_activity"`
}

// Store defines the persistence interface for the sales-intelligence core.
type Store interface {
	// Venues
	CreateVenue(ctx context.Context, v *model.Venue) error
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
	ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error)
	UpdateVenue(ctx context.Context, id string, update model.VenueUpdate, leadScore int, priority model.Priority) error
	UpdateVenueDetection(ctx context.Context, id string, current []string, missing []model.ProductGap, competitors []string, leadScore int, priority model.Priority) error
	// DeleteVenue cascades to the venue's visits, activities, and route
	// memberships.
	DeleteVenue(ctx context.Context, id string) error

	// Routes. CreateRoute persists the route and its full stop list
	// atomically: either everything lands or nothing does.
	CreateRoute(ctx context.Context, r *model.Route) error
	GetRoute(ctx context.Context, id string) (*model.Route, error)
	ListRoutes(ctx context.Context, filter RouteFilter) ([]model.Route, error)
	UpdateRouteStatus(ctx context.Context, id string, status model.RouteStatus) error
	MarkStopVisited(ctx context.Context, routeID, venueID string, at time.Time) error

	// Visits and activities.
	// RecordVisit persists the visit, the venue's updated sales state,
	// and the activity entry as one transactional unit.
	RecordVisit(ctx context.Context, visit *model.Visit, venue *model.Venue, activity *model.Activity) error
	ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error)
	AppendActivity(ctx context.Context, a *model.Activity) error
	ListActivities(ctx context.Context, venueID string, limit int) ([]model.Activity, error)

	// Stats returns dashboard aggregates, optionally scoped to one
	// salesperson.
	Stats(ctx context.Context, salesPerson string) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
