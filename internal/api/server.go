// Package api exposes the sales-intelligence core over HTTP for the field
// dashboard.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/lifecycle"
	"github.com/horeca-group/horeca-cli/internal/routeplan"
	"github.com/horeca-group/horeca-cli/internal/scoring"
	"github.com/horeca-group/horeca-cli/internal/store"
)

// Server wires the store and lifecycle manager into HTTP handlers.
type Server struct {
	store     store.Store
	manager   *lifecycle.Manager
	bander    scoring.Bander
	maxStops  int
	allowCORS []string
}

// Option configures the Server.
type Option func(*Server)

// WithCORS sets the allowed origins.
func WithCORS(origins []string) Option {
	return func(s *Server) { s.allowCORS = origins }
}

// WithBander overrides the opportunity banding thresholds.
func WithBander(b scoring.Bander) Option {
	return func(s *Server) { s.bander = b }
}

// WithMaxStops caps the number of stops per planned route.
func WithMaxStops(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxStops = n
		}
	}
}

// NewServer creates a Server over the given store.
func NewServer(st store.Store, opts ...Option) *Server {
	s := &Server{
		store:     st,
		manager:   lifecycle.NewManager(st),
		bander:    scoring.DefaultBander(),
		maxStops:  routeplan.MaxStops,
		allowCORS: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowCORS,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/venues", func(r chi.Router) {
			r.Get("/", s.listVenues)
			r.Post("/", s.createVenue)
			r.Get("/{id}", s.getVenue)
			r.Patch("/{id}", s.updateVenue)
			r.Delete("/{id}", s.deleteVenue)
			r.Get("/{id}/activities", s.listVenueActivities)
		})
		r.Get("/opportunities", s.listOpportunities)
		r.Route("/routes", func(r chi.Router) {
			r.Get("/", s.listRoutes)
			r.Post("/", s.planRoute)
			r.Get("/{id}", s.getRoute)
			r.Get("/{id}/geometry", s.routeGeometry)
			r.Post("/{id}/start", s.startRoute)
			r.Post("/{id}/complete", s.completeRoute)
			r.Post("/{id}/stops/{venueID}/visited", s.markStopVisited)
		})
		r.Route("/visits", func(r chi.Router) {
			r.Get("/", s.listVisits)
			r.Post("/", s.recordVisit)
		})
		r.Get("/stats", s.stats)
	})

	return r
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps store errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	zap.L().Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
