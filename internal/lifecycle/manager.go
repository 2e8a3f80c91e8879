// Package lifecycle drives the venue and route state machines: recording
// sales visits, advancing venue funnel status, and tracking route execution.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/scoring"
	"github.com/horeca-group/horeca-cli/internal/store"
)

// Manager serializes lifecycle mutations per venue. Two concurrent visit
// recordings against the same venue are applied one after the other; visits
// to different venues proceed in parallel.
type Manager struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewManager creates a lifecycle Manager on top of the given store.
func NewManager(s store.Store) *Manager {
	return &Manager{
		store: s,
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

func (m *Manager) venueLock(venueID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[venueID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[venueID] = l
	}
	return l
}

// VisitInput describes one sales call to record.
type VisitInput struct {
	VenueID         string             `json:"venue_id"`
	SalesPerson     string             `json:"sales_person"`
	Outcome         model.VisitOutcome `json:"outcome"`
	VisitDate       time.Time          `json:"visit_date,omitempty"` // zero means now
	DurationMinutes *int               `json:"duration_minutes,omitempty"`
	OrderPlaced     bool               `json:"order_placed"`
	OrderValue      *float64           `json:"order_value,omitempty"`
	Notes           string             `json:"notes,omitempty"`

	// RouteID, when set, also marks the venue's stop on that route as
	// visited and advances the route state machine. Stop marking is best
	// effort: the visit itself stands even if the route update fails.
	RouteID string `json:"route_id,omitempty"`
}

func (in *VisitInput) validate() error {
	if in.VenueID == "" {
		return eris.New("lifecycle: visit requires a venue id")
	}
	switch in.Outcome {
	case model.VisitOutcomeSuccessful, model.VisitOutcomeNoInterest, model.VisitOutcomeFollowUp:
	default:
		return eris.Errorf("lifecycle: unknown visit outcome %q", in.Outcome)
	}
	return nil
}

// RecordVisit records a sales call as one logical unit: the visit row, the
// venue's funnel status and contact recency, a lead-score recompute, and an
// activity log entry all land together or not at all.
//
// Status transitions: a successful outcome promotes the venue to customer;
// any other outcome moves it to contacted unless it is already a customer.
// Nothing demotes a customer.
func (m *Manager) RecordVisit(ctx context.Context, in VisitInput) (*model.Visit, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	lock := m.venueLock(in.VenueID)
	lock.Lock()
	defer lock.Unlock()

	venue, err := m.store.GetVenue(ctx, in.VenueID)
	if err != nil {
		return nil, eris.Wrapf(err, "lifecycle: load venue %s", in.VenueID)
	}

	visitDate := in.VisitDate
	if visitDate.IsZero() {
		visitDate = m.now().UTC()
	}

	switch {
	case in.Outcome == model.VisitOutcomeSuccessful:
		venue.Status = model.VenueStatusCustomer
	case venue.Status != model.VenueStatusCustomer:
		venue.Status = model.VenueStatusContacted
	}
	venue.LastContactDate = &visitDate
	venue.LeadScore = scoring.LeadScoreAt(scoring.LeadSignals{
		Rating:          venue.Rating,
		ReviewCount:     venue.ReviewCount,
		MissingProducts: len(venue.MissingProducts),
		LastContactDate: venue.LastContactDate,
	}, m.now())

	now := m.now().UTC()
	visit := &model.Visit{
		ID:              uuid.New().String(),
		VenueID:         in.VenueID,
		VisitDate:       visitDate,
		SalesPerson:     in.SalesPerson,
		Outcome:         in.Outcome,
		DurationMinutes: in.DurationMinutes,
		OrderPlaced:     in.OrderPlaced,
		OrderValue:      in.OrderValue,
		Notes:           in.Notes,
		CreatedAt:       now,
	}
	activity := &model.Activity{
		ID:          uuid.New().String(),
		VenueID:     in.VenueID,
		Type:        model.ActivityTypeVisit,
		Description: fmt.Sprintf("Visit recorded: %s", in.Outcome),
		SalesPerson: in.SalesPerson,
		CreatedAt:   now,
	}

	if err := m.store.RecordVisit(ctx, visit, venue, activity); err != nil {
		return nil, eris.Wrap(err, "lifecycle: record visit")
	}

	zap.L().Info("visit recorded",
		zap.String("venue_id", in.VenueID),
		zap.String("outcome", string(in.Outcome)),
		zap.String("venue_status", string(venue.Status)),
		zap.Int("lead_score", venue.LeadScore))

	if in.RouteID != "" {
		// The visit is already committed at this point. A failed stop
		// update must not turn a recorded visit into an error.
		if err := m.MarkStopVisited(ctx, in.RouteID, in.VenueID, visitDate); err != nil {
			zap.L().Warn("visit recorded but route stop not marked",
				zap.String("route_id", in.RouteID),
				zap.String("venue_id", in.VenueID),
				zap.Error(err))
		}
	}
	return visit, nil
}

// StartRoute moves a planned route to in_progress. Starting an already
// started route is a no-op; a completed route cannot be restarted.
func (m *Manager) StartRoute(ctx context.Context, routeID string) error {
	route, err := m.store.GetRoute(ctx, routeID)
	if err != nil {
		return eris.Wrapf(err, "lifecycle: load route %s", routeID)
	}
	switch route.Status {
	case model.RouteStatusInProgress:
		return nil
	case model.RouteStatusCompleted:
		return eris.Errorf("lifecycle: route %s is already completed", routeID)
	}
	if err := m.store.UpdateRouteStatus(ctx, routeID, model.RouteStatusInProgress); err != nil {
		return eris.Wrap(err, "lifecycle: start route")
	}
	zap.L().Info("route started", zap.String("route_id", routeID))
	return nil
}

// MarkStopVisited marks one stop on a route as visited. The first visited
// stop moves a planned route to in_progress; the last one completes the
// route.
func (m *Manager) MarkStopVisited(ctx context.Context, routeID, venueID string, at time.Time) error {
	route, err := m.store.GetRoute(ctx, routeID)
	if err != nil {
		return eris.Wrapf(err, "lifecycle: load route %s", routeID)
	}
	if route.Status == model.RouteStatusCompleted {
		return eris.Errorf("lifecycle: route %s is already completed", routeID)
	}

	if err := m.store.MarkStopVisited(ctx, routeID, venueID, at); err != nil {
		return eris.Wrap(err, "lifecycle: mark stop visited")
	}

	for i := range route.Stops {
		if route.Stops[i].VenueID == venueID {
			route.Stops[i].Visited = true
		}
	}

	next := route.Status
	if route.AllStopsVisited() {
		next = model.RouteStatusCompleted
	} else if route.Status == model.RouteStatusPlanned {
		next = model.RouteStatusInProgress
	}
	if next != route.Status {
		if err := m.store.UpdateRouteStatus(ctx, routeID, next); err != nil {
			return eris.Wrap(err, "lifecycle: advance route status")
		}
		zap.L().Info("route status advanced",
			zap.String("route_id", routeID),
			zap.String("status", string(next)))
	}
	return nil
}

// CompleteRoute forces a route to completed regardless of unvisited stops,
// for days cut short in the field.
func (m *Manager) CompleteRoute(ctx context.Context, routeID string) error {
	if err := m.store.UpdateRouteStatus(ctx, routeID, model.RouteStatusCompleted); err != nil {
		return eris.Wrap(err, "lifecycle: complete route")
	}
	zap.L().Info("route completed", zap.String("route_id", routeID))
	return nil
}
