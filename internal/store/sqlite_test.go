package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horeca-group/horeca-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(t.TempDir() + "/horeca.db")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func testVenue(name, city string) *model.Venue {
	rating := 4.5
	reviews := 120
	return &model.Venue{
		Name:      name,
		City:      city,
		Latitude:  40.4168,
		Longitude: -3.7038,
		Type:      model.BusinessTypeBar,
		Rating:    &rating,
		ReviewCount: &reviews,
		CurrentProducts: []string{"Mahou"},
		MissingProducts: []model.ProductGap{
			{Brand: "Coca-Cola", Category: "soft_drinks", Confidence: 80},
		},
		Platforms: map[string]bool{"glovo": true},
		LeadScore: 75,
		Priority:  model.PriorityHigh,
		Status:    model.VenueStatusNew,
	}
}

func TestSQLiteStore_VenueRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Manolo", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))
	require.NotEmpty(t, v.ID)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bar Manolo", got.Name)
	assert.Equal(t, model.BusinessTypeBar, got.Type)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.5, *got.Rating)
	assert.Equal(t, []string{"Mahou"}, got.CurrentProducts)
	require.Len(t, got.MissingProducts, 1)
	assert.Equal(t, "Coca-Cola", got.MissingProducts[0].Brand)
	assert.True(t, got.Platforms["glovo"])
	assert.Equal(t, 75, got.LeadScore)
}

func TestSQLiteStore_GetVenue_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetVenue(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_ListVenues_FilterAndOrder(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	low := testVenue("Bar Bajo", "Madrid")
	low.LeadScore = 20
	low.Priority = model.PriorityLow
	high := testVenue("Bar Alto", "Madrid")
	high.LeadScore = 90
	other := testVenue("Bar Vell", "Barcelona")

	for _, v := range []*model.Venue{low, high, other} {
		require.NoError(t, s.CreateVenue(ctx, v))
	}

	madrid, err := s.ListVenues(ctx, VenueFilter{City: "Madrid"})
	require.NoError(t, err)
	require.Len(t, madrid, 2)
	assert.Equal(t, "Bar Alto", madrid[0].Name, "highest lead score first")

	scored, err := s.ListVenues(ctx, VenueFilter{MinScore: 70})
	require.NoError(t, err)
	require.Len(t, scored, 2)

	limited, err := s.ListVenues(ctx, VenueFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_UpdateVenue_PartialFields(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Manolo", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))

	status := model.VenueStatusInterested
	name := "Bar Manolo II"
	err := s.UpdateVenue(ctx, v.ID, model.VenueUpdate{Name: &name, Status: &status}, 82, model.PriorityHigh)
	require.NoError(t, err)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bar Manolo II", got.Name)
	assert.Equal(t, model.VenueStatusInterested, got.Status)
	assert.Equal(t, 82, got.LeadScore)
	// Untouched fields survive.
	assert.Equal(t, "Madrid", got.City)
	require.NotNil(t, got.Rating)
}

func TestSQLiteStore_UpdateVenueDetection(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Manolo", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))

	current := []string{"Mahou", "Heineken"}
	missing := []model.ProductGap{{Brand: "Fanta", Category: "soft_drinks", Confidence: 60}}
	err := s.UpdateVenueDetection(ctx, v.ID, current, missing, []string{"Pepsi"}, 88, model.PriorityHigh)
	require.NoError(t, err)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, current, got.CurrentProducts)
	require.Len(t, got.MissingProducts, 1)
	assert.Equal(t, "Fanta", got.MissingProducts[0].Brand)
	assert.Equal(t, []string{"Pepsi"}, got.CompetitorProducts)
	assert.Equal(t, 88, got.LeadScore)
}

func TestSQLiteStore_DeleteVenue_Cascades(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Manolo", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))
	require.NoError(t, s.AppendActivity(ctx, &model.Activity{
		VenueID: v.ID, Type: model.ActivityTypeNote, Description: "llamar el lunes",
	}))

	require.NoError(t, s.DeleteVenue(ctx, v.ID))

	_, err := s.GetVenue(ctx, v.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	acts, err := s.ListActivities(ctx, v.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, acts, "activities are removed with the venue")

	err = s.DeleteVenue(ctx, v.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_RouteRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v1 := testVenue("Bar Uno", "Madrid")
	v2 := testVenue("Bar Dos", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v1))
	require.NoError(t, s.CreateVenue(ctx, v2))

	startLat, startLng := 40.4168, -3.7038
	r := &model.Route{
		Name:             "Ruta Centro",
		SalesPerson:      "ana",
		PlannedDate:      time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		StartLat:         &startLat,
		StartLng:         &startLng,
		TotalDistanceKm:  3.4,
		EstimatedMinutes: 30,
		Stops: []model.RouteStop{
			{VenueID: v1.ID, OrderIndex: 0},
			{VenueID: v2.ID, OrderIndex: 1},
		},
	}
	require.NoError(t, s.CreateRoute(ctx, r))

	got, err := s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RouteStatusPlanned, got.Status)
	assert.Equal(t, 3.4, got.TotalDistanceKm)
	require.NotNil(t, got.StartLat)
	require.Len(t, got.Stops, 2)
	assert.Equal(t, v1.ID, got.Stops[0].VenueID)
	assert.Equal(t, 0, got.Stops[0].OrderIndex)
	assert.False(t, got.Stops[0].Visited)

	// Each stop carries its joined venue so route reads are self-contained.
	require.NotNil(t, got.Stops[0].Venue)
	assert.Equal(t, "Bar Uno", got.Stops[0].Venue.Name)
	assert.Equal(t, v1.Latitude, got.Stops[0].Venue.Latitude)
	assert.Equal(t, v1.Longitude, got.Stops[0].Venue.Longitude)
	require.NotNil(t, got.Stops[1].Venue)
	assert.Equal(t, "Bar Dos", got.Stops[1].Venue.Name)

	routes, err := s.ListRoutes(ctx, RouteFilter{})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Stops, 2)
	require.NotNil(t, routes[0].Stops[0].Venue)
	assert.Equal(t, "Bar Uno", routes[0].Stops[0].Venue.Name)
}

func TestSQLiteStore_MarkStopVisited(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Uno", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))
	r := &model.Route{
		Name:        "Ruta",
		PlannedDate: time.Now().UTC(),
		Stops:       []model.RouteStop{{VenueID: v.ID, OrderIndex: 0}},
	}
	require.NoError(t, s.CreateRoute(ctx, r))

	at := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.MarkStopVisited(ctx, r.ID, v.ID, at))

	got, err := s.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	require.True(t, got.Stops[0].Visited)
	require.NotNil(t, got.Stops[0].VisitedAt)
	assert.True(t, got.AllStopsVisited())

	err = s.MarkStopVisited(ctx, r.ID, "not-on-route", at)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore_ListRoutes_Filter(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Uno", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))

	for _, sp := range []string{"ana", "luis"} {
		r := &model.Route{
			Name: "Ruta " + sp, SalesPerson: sp, PlannedDate: time.Now().UTC(),
			Stops: []model.RouteStop{{VenueID: v.ID, OrderIndex: 0}},
		}
		require.NoError(t, s.CreateRoute(ctx, r))
	}

	routes, err := s.ListRoutes(ctx, RouteFilter{SalesPerson: "ana"})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "ana", routes[0].SalesPerson)
	assert.Len(t, routes[0].Stops, 1)
}

func TestSQLiteStore_RecordVisit_UpdatesEverything(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Manolo", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	orderValue := 350.0
	visit := &model.Visit{
		ID: "visit-1", VenueID: v.ID, VisitDate: now, SalesPerson: "ana",
		Outcome: model.VisitOutcomeSuccessful, OrderPlaced: true,
		OrderValue: &orderValue, CreatedAt: now,
	}
	v.Status = model.VenueStatusCustomer
	v.LastContactDate = &now
	v.LeadScore = 42
	v.Priority = model.PriorityMedium
	activity := &model.Activity{
		ID: "act-1", VenueID: v.ID, Type: model.ActivityTypeVisit,
		Description: "pedido cerrado", SalesPerson: "ana", CreatedAt: now,
	}

	require.NoError(t, s.RecordVisit(ctx, visit, v, activity))

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VenueStatusCustomer, got.Status)
	require.NotNil(t, got.LastContactDate)
	assert.Equal(t, 42, got.LeadScore)

	visits, err := s.ListVisits(ctx, VisitFilter{VenueID: v.ID})
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, model.VisitOutcomeSuccessful, visits[0].Outcome)
	require.NotNil(t, visits[0].OrderValue)
	assert.Equal(t, 350.0, *visits[0].OrderValue)

	acts, err := s.ListActivities(ctx, v.ID, 0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, model.ActivityTypeVisit, acts[0].Type)
}

func TestSQLiteStore_RecordVisit_MissingVenueRollsBack(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	v := testVenue("Bar Manolo", "Madrid")
	require.NoError(t, s.CreateVenue(ctx, v))

	now := time.Now().UTC()
	visit := &model.Visit{ID: "visit-1", VenueID: v.ID, VisitDate: now, Outcome: model.VisitOutcomeFollowUp, CreatedAt: now}
	gone := &model.Venue{ID: "gone", Status: model.VenueStatusContacted}
	activity := &model.Activity{ID: "act-1", VenueID: v.ID, Type: model.ActivityTypeVisit, CreatedAt: now}

	err := s.RecordVisit(ctx, visit, gone, activity)
	require.Error(t, err)

	// The visit insert rolled back with the failed venue update.
	visits, listErr := s.ListVisits(ctx, VisitFilter{VenueID: v.ID})
	require.NoError(t, listErr)
	assert.Empty(t, visits)
}

func TestSQLiteStore_Stats(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, city := range []string{"Madrid", "Madrid", "Barcelona"} {
		v := testVenue("Bar "+city, city)
		require.NoError(t, s.CreateVenue(ctx, v))
	}

	stats, err := s.Stats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalVenues)
	assert.Equal(t, 3, stats.HighPriority)
	assert.Equal(t, 3, stats.NewVenues)
	assert.Equal(t, 0, stats.TotalVisits)
	require.NotEmpty(t, stats.TopCities)
	assert.Equal(t, "Madrid", stats.TopCities[0].City)
	assert.Equal(t, 2, stats.TopCities[0].Count)
}
