package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	s, err := store.NewSQLite(t.TempDir() + "/api.db")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(NewServer(s).Router())
	t.Cleanup(ts.Close)
	return ts, s
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVenueCRUD(t *testing.T) {
	ts, _ := newTestServer(t)
	rating := 4.5
	reviews := 120

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/venues", model.Venue{
		Name:        "Bar Manolo",
		City:        "Madrid",
		Latitude:    40.4168,
		Longitude:   -3.7038,
		Type:        model.BusinessTypeBar,
		Rating:      &rating,
		ReviewCount: &reviews,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Venue](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.VenueStatusNew, created.Status)
	// 4.5*6 + min(120/10,20) + 0 + 20 never contacted = 59.
	assert.Equal(t, 59, created.LeadScore)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/venues/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Venue](t, resp)
	assert.Equal(t, "Bar Manolo", got.Name)

	newName := "Bar Manolo II"
	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/venues/"+created.ID, model.VenueUpdate{Name: &newName})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Venue](t, resp)
	assert.Equal(t, "Bar Manolo II", updated.Name)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/venues/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/venues/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateVenue_Validation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/venues", model.Venue{Latitude: 1, Longitude: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "name required")

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/venues", model.Venue{Name: "X", Latitude: 95, Longitude: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "bad latitude")
}

func TestListVenues_Filter(t *testing.T) {
	ts, s := newTestServer(t)
	ctx := context.Background()

	for _, city := range []string{"Madrid", "Barcelona"} {
		require.NoError(t, s.CreateVenue(ctx, &model.Venue{
			Name: "Bar " + city, City: city, Latitude: 40, Longitude: -3,
			Type: model.BusinessTypeBar, Status: model.VenueStatusNew, Priority: model.PriorityLow,
		}))
	}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/venues?city=Madrid", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	venues := decode[[]model.Venue](t, resp)
	require.Len(t, venues, 1)
	assert.Equal(t, "Bar Madrid", venues[0].Name)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/venues?min_score=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpportunities_ExcludesCustomersAndRanks(t *testing.T) {
	ts, s := newTestServer(t)
	ctx := context.Background()

	highRating := 5.0
	level := 3
	lowRating := 3.0
	require.NoError(t, s.CreateVenue(ctx, &model.Venue{
		Name: "Bar Top", City: "Madrid", Latitude: 40, Longitude: -3,
		Type: model.BusinessTypeBar, Rating: &highRating, PriceLevel: &level,
		CompetitorProducts: []string{"Pepsi"},
		Status:             model.VenueStatusNew, Priority: model.PriorityLow,
	}))
	require.NoError(t, s.CreateVenue(ctx, &model.Venue{
		Name: "Bar Flojo", City: "Madrid", Latitude: 40, Longitude: -3,
		Type: model.BusinessTypeBar, Rating: &lowRating,
		Status: model.VenueStatusNew, Priority: model.PriorityLow,
	}))
	require.NoError(t, s.CreateVenue(ctx, &model.Venue{
		Name: "Bar Cliente", City: "Madrid", Latitude: 40, Longitude: -3,
		Type: model.BusinessTypeBar, Rating: &highRating,
		Status: model.VenueStatusCustomer, Priority: model.PriorityLow,
	}))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/opportunities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[opportunitiesResponse](t, resp)
	require.Len(t, body.Opportunities, 2, "customers are excluded")
	assert.Equal(t, 2, body.Summary.Count)
	assert.Equal(t, 1, body.Summary.HighValueCount)
	assert.Greater(t, body.Summary.TotalEstimatedMonthlyRevenue, 0.0)

	top := body.Opportunities[0]
	assert.Equal(t, "Bar Top", top.Venue.Name)
	// 5.0*20 + 3*15 + 10 competitor = 155, high band.
	assert.Equal(t, 155.0, top.OpportunityScore)
	assert.Equal(t, model.PriorityHigh, top.Priority)
	assert.Greater(t, top.EstimatedMonthlyRevenue, 0.0)
}

func TestRoutePlanAndLifecycle(t *testing.T) {
	ts, s := newTestServer(t)
	ctx := context.Background()

	ids := make([]string, 0, 3)
	coords := [][2]float64{{41.3851, 2.1734}, {41.4036, 2.1744}, {41.3888, 2.1590}}
	for i, c := range coords {
		v := &model.Venue{
			Name: fmt.Sprintf("Bar %d", i), City: "Barcelona",
			Latitude: c[0], Longitude: c[1],
			Type: model.BusinessTypeBar, Status: model.VenueStatusNew, Priority: model.PriorityLow,
		}
		require.NoError(t, s.CreateVenue(ctx, v))
		ids = append(ids, v.ID)
	}

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/routes", planRouteRequest{
		Name: "Ruta Gòtic", SalesPerson: "ana", VenueIDs: ids,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	route := decode[model.Route](t, resp)
	require.Len(t, route.Stops, 3)
	assert.Equal(t, model.RouteStatusPlanned, route.Status)
	assert.Greater(t, route.TotalDistanceKm, 0.0)
	assert.Greater(t, route.EstimatedMinutes, 0)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/routes/"+route.ID+"/geometry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	geo := decode[routeGeometryResponse](t, resp)
	assert.Len(t, geo.Coordinates, 3)
	require.Len(t, geo.Bounds, 4)
	assert.LessOrEqual(t, geo.Bounds[0], geo.Bounds[2])
	assert.LessOrEqual(t, geo.Bounds[1], geo.Bounds[3])

	// Start, then visit every stop; the route completes itself.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/routes/"+route.ID+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, stop := range route.Stops {
		resp = doJSON(t, http.MethodPost,
			ts.URL+"/api/routes/"+route.ID+"/stops/"+stop.VenueID+"/visited", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/routes/"+route.ID, nil)
	final := decode[model.Route](t, resp)
	assert.Equal(t, model.RouteStatusCompleted, final.Status)

	// Visiting a stop on a completed route conflicts.
	resp = doJSON(t, http.MethodPost,
		ts.URL+"/api/routes/"+route.ID+"/stops/"+route.Stops[0].VenueID+"/visited", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPlanRoute_UnknownVenue(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/routes", planRouteRequest{
		VenueIDs: []string{"ghost"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordVisitEndpoint(t *testing.T) {
	ts, s := newTestServer(t)
	ctx := context.Background()

	v := &model.Venue{
		Name: "Bar Manolo", City: "Madrid", Latitude: 40, Longitude: -3,
		Type: model.BusinessTypeBar, Status: model.VenueStatusNew, Priority: model.PriorityLow,
	}
	require.NoError(t, s.CreateVenue(ctx, v))

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/visits", map[string]any{
		"venue_id": v.ID, "sales_person": "ana", "outcome": "successful",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	visit := decode[model.Visit](t, resp)
	assert.Equal(t, model.VisitOutcomeSuccessful, visit.Outcome)

	got, err := s.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VenueStatusCustomer, got.Status)

	// Bad outcome is a 400; unknown venue a 404.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/visits", map[string]any{
		"venue_id": v.ID, "outcome": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/visits", map[string]any{
		"venue_id": "ghost", "outcome": "follow_up",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	ts, s := newTestServer(t)
	require.NoError(t, s.CreateVenue(context.Background(), &model.Venue{
		Name: "Bar Uno", City: "Madrid", Latitude: 40, Longitude: -3,
		Type: model.BusinessTypeBar, Status: model.VenueStatusNew, Priority: model.PriorityHigh,
	}))

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[store.Stats](t, resp)
	assert.Equal(t, 1, stats.TotalVenues)
	assert.Equal(t, 1, stats.HighPriority)
}
