package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/routeplan"
	"github.com/horeca-group/horeca-cli/internal/store"
)

// planRouteRequest asks for an optimized route over a set of venues.
type planRouteRequest struct {
	Name        string    `json:"name"`
	SalesPerson string    `json:"sales_person"`
	PlannedDate time.Time `json:"planned_date"`
	VenueIDs    []string  `json:"venue_ids"`
	Start       *struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"start,omitempty"`
}

func (s *Server) planRoute(w http.ResponseWriter, r *http.Request) {
	var req planRouteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.VenueIDs) == 0 {
		writeError(w, http.StatusBadRequest, "venue_ids is required")
		return
	}
	if len(req.VenueIDs) > s.maxStops {
		writeError(w, http.StatusBadRequest, "too many venues for one route")
		return
	}

	venues := make([]*model.Venue, 0, len(req.VenueIDs))
	for _, id := range req.VenueIDs {
		v, err := s.store.GetVenue(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		venues = append(venues, v)
	}

	var start *routeplan.Start
	if req.Start != nil {
		start = &routeplan.Start{Lat: req.Start.Lat, Lng: req.Start.Lng}
	}

	plan, err := routeplan.Optimize(venues, start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	plannedDate := req.PlannedDate
	if plannedDate.IsZero() {
		plannedDate = time.Now().UTC()
	}

	route := &model.Route{
		Name:             req.Name,
		SalesPerson:      req.SalesPerson,
		PlannedDate:      plannedDate,
		Status:           model.RouteStatusPlanned,
		TotalDistanceKm:  plan.TotalDistanceKm,
		EstimatedMinutes: plan.EstimatedMinutes,
	}
	if req.Start != nil {
		route.StartLat = &req.Start.Lat
		route.StartLng = &req.Start.Lng
	}
	for i, v := range plan.OrderedStops {
		route.Stops = append(route.Stops, model.RouteStop{
			VenueID:    v.ID,
			OrderIndex: i,
			Venue:      v,
		})
	}

	if err := s.store.CreateRoute(r.Context(), route); err != nil {
		writeStoreError(w, err)
		return
	}

	zap.L().Info("route planned",
		zap.String("route_id", route.ID),
		zap.Int("stops", len(route.Stops)),
		zap.Float64("total_km", route.TotalDistanceKm))
	writeJSON(w, http.StatusCreated, route)
}

// routeGeometryResponse carries the map-overlay geometry for a route:
// the stop path as lng/lat coordinates and the framing bounding box.
type routeGeometryResponse struct {
	Coordinates [][]float64 `json:"coordinates"`
	Bounds      []float64   `json:"bounds,omitempty"` // minLng, minLat, maxLng, maxLat
}

func (s *Server) routeGeometry(w http.ResponseWriter, r *http.Request) {
	route, err := s.store.GetRoute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	plan := &routeplan.Plan{}
	for _, stop := range route.Stops {
		if stop.Venue != nil {
			plan.OrderedStops = append(plan.OrderedStops, stop.Venue)
		}
	}

	resp := routeGeometryResponse{Coordinates: [][]float64{}}
	if ls := plan.Geometry(); ls != nil {
		for _, c := range ls.Coords() {
			resp.Coordinates = append(resp.Coordinates, []float64{c.X(), c.Y()})
		}
	}
	if b := plan.Bounds(); b != nil {
		resp.Bounds = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	routes, err := s.store.ListRoutes(r.Context(), store.RouteFilter{
		SalesPerson: q.Get("sales_person"),
		Status:      model.RouteStatus(q.Get("status")),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if routes == nil {
		routes = []model.Route{}
	}
	writeJSON(w, http.StatusOK, routes)
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	route, err := s.store.GetRoute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) startRoute(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.StartRoute(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.RouteStatusInProgress)})
}

func (s *Server) completeRoute(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.CompleteRoute(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.RouteStatusCompleted)})
}

func (s *Server) markStopVisited(w http.ResponseWriter, r *http.Request) {
	routeID := chi.URLParam(r, "id")
	venueID := chi.URLParam(r, "venueID")

	if err := s.manager.MarkStopVisited(r.Context(), routeID, venueID, time.Now().UTC()); err != nil {
		writeLifecycleError(w, err)
		return
	}

	route, err := s.store.GetRoute(r.Context(), routeID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}
