package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/store"
)

func newTestManager(t *testing.T) (*Manager, store.Store) {
	t.Helper()
	s, err := store.NewSQLite(t.TempDir() + "/lifecycle.db")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return NewManager(s), s
}

func seedVenue(t *testing.T, s store.Store, name string) *model.Venue {
	t.Helper()
	rating := 4.0
	reviews := 80
	v := &model.Venue{
		Name:      name,
		City:      "Madrid",
		Latitude:  40.4168,
		Longitude: -3.7038,
		Type:      model.BusinessTypeBar,
		Rating:    &rating,
		ReviewCount: &reviews,
		MissingProducts: []model.ProductGap{
			{Brand: "Coca-Cola", Category: "soft_drinks", Confidence: 80},
		},
		Status:   model.VenueStatusNew,
		Priority: model.PriorityMedium,
	}
	require.NoError(t, s.CreateVenue(context.Background(), v))
	return v
}

func seedRoute(t *testing.T, s store.Store, venueIDs ...string) *model.Route {
	t.Helper()
	r := &model.Route{
		Name:        "Ruta Test",
		SalesPerson: "ana",
		PlannedDate: time.Now().UTC(),
	}
	for i, id := range venueIDs {
		r.Stops = append(r.Stops, model.RouteStop{VenueID: id, OrderIndex: i})
	}
	require.NoError(t, s.CreateRoute(context.Background(), r))
	return r
}

func TestRecordVisit_SuccessfulPromotesToCustomer(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v := seedVenue(t, s, "Bar Manolo")

	visit, err := m.RecordVisit(ctx, VisitInput{
		VenueID:     v.ID,
		SalesPerson: "ana",
		Outcome:     model.VisitOutcomeSuccessful,
		OrderPlaced: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, visit.ID)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VenueStatusCustomer, got.Status)
	require.NotNil(t, got.LastContactDate)

	// Fresh contact drops the recency bonus: 4.0*6 + 80/10 + 1*10 + 0 = 42.
	assert.Equal(t, 42, got.LeadScore)

	acts, err := s.ListActivities(ctx, v.ID, 0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, model.ActivityTypeVisit, acts[0].Type)
	assert.Contains(t, acts[0].Description, "successful")
}

func TestRecordVisit_OtherOutcomesMoveToContacted(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()

	for _, outcome := range []model.VisitOutcome{model.VisitOutcomeNoInterest, model.VisitOutcomeFollowUp} {
		v := seedVenue(t, s, "Bar "+string(outcome))
		_, err := m.RecordVisit(ctx, VisitInput{VenueID: v.ID, Outcome: outcome})
		require.NoError(t, err)

		got, err := s.GetVenue(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VenueStatusContacted, got.Status)
	}
}

func TestRecordVisit_NothingDemotesCustomer(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v := seedVenue(t, s, "Bar Cliente")

	_, err := m.RecordVisit(ctx, VisitInput{VenueID: v.ID, Outcome: model.VisitOutcomeSuccessful})
	require.NoError(t, err)
	_, err = m.RecordVisit(ctx, VisitInput{VenueID: v.ID, Outcome: model.VisitOutcomeNoInterest})
	require.NoError(t, err)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VenueStatusCustomer, got.Status)
}

func TestRecordVisit_InvalidInput(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.RecordVisit(ctx, VisitInput{Outcome: model.VisitOutcomeSuccessful})
	assert.Error(t, err, "missing venue id")

	_, err = m.RecordVisit(ctx, VisitInput{VenueID: "x", Outcome: "maybe"})
	assert.Error(t, err, "unknown outcome")
}

func TestRecordVisit_UnknownVenue(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.RecordVisit(context.Background(), VisitInput{
		VenueID: "ghost", Outcome: model.VisitOutcomeFollowUp,
	})
	require.Error(t, err)
}

func TestRecordVisit_WithRouteAdvancesRoute(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v1 := seedVenue(t, s, "Bar Uno")
	v2 := seedVenue(t, s, "Bar Dos")
	r := seedRoute(t, s, v1.ID, v2.ID)

	_, err := m.RecordVisit(ctx, VisitInput{
		VenueID: v1.ID, Outcome: model.VisitOutcomeFollowUp, RouteID: r.ID,
	})
	require.NoError(t, err)

	got, err := s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RouteStatusInProgress, got.Status, "first visited stop starts the route")
	assert.True(t, got.Stops[0].Visited)
	assert.False(t, got.Stops[1].Visited)

	_, err = m.RecordVisit(ctx, VisitInput{
		VenueID: v2.ID, Outcome: model.VisitOutcomeSuccessful, RouteID: r.ID,
	})
	require.NoError(t, err)

	got, err = s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RouteStatusCompleted, got.Status, "final visited stop completes the route")
}

func TestRecordVisit_BadRouteKeepsVisit(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v := seedVenue(t, s, "Bar Sin Ruta")

	visit, err := m.RecordVisit(ctx, VisitInput{
		VenueID: v.ID, Outcome: model.VisitOutcomeSuccessful, RouteID: "no-such-route",
	})
	require.NoError(t, err, "a failed stop update must not discard the recorded visit")
	require.NotNil(t, visit)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VenueStatusCustomer, got.Status)

	visits, err := s.ListVisits(ctx, store.VisitFilter{VenueID: v.ID})
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestStartRoute(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v := seedVenue(t, s, "Bar Uno")
	r := seedRoute(t, s, v.ID)

	require.NoError(t, m.StartRoute(ctx, r.ID))
	got, err := s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RouteStatusInProgress, got.Status)

	// Idempotent on an in-progress route.
	require.NoError(t, m.StartRoute(ctx, r.ID))

	require.NoError(t, m.CompleteRoute(ctx, r.ID))
	err = m.StartRoute(ctx, r.ID)
	require.Error(t, err, "completed routes cannot restart")
}

func TestMarkStopVisited_CompletedRouteRejected(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v := seedVenue(t, s, "Bar Uno")
	r := seedRoute(t, s, v.ID)

	require.NoError(t, m.CompleteRoute(ctx, r.ID))
	err := m.MarkStopVisited(ctx, r.ID, v.ID, time.Now())
	require.Error(t, err)
}

func TestRecordVisit_ConcurrentSameVenue(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	v := seedVenue(t, s, "Bar Concurrido")

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.RecordVisit(ctx, VisitInput{
				VenueID: v.ID, Outcome: model.VisitOutcomeFollowUp,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	visits, err := s.ListVisits(ctx, store.VisitFilter{VenueID: v.ID})
	require.NoError(t, err)
	assert.Len(t, visits, n)
}
