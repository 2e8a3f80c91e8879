package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/horeca-group/horeca-cli/internal/lifecycle"
	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/store"
)

func (s *Server) recordVisit(w http.ResponseWriter, r *http.Request) {
	var in lifecycle.VisitInput
	if !decodeBody(w, r, &in) {
		return
	}

	visit, err := s.manager.RecordVisit(r.Context(), in)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, visit)
}

func (s *Server) listVisits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.VisitFilter{
		VenueID:     q.Get("venue_id"),
		SalesPerson: q.Get("sales_person"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}

	visits, err := s.store.ListVisits(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if visits == nil {
		visits = []model.Visit{}
	}
	writeJSON(w, http.StatusOK, visits)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), r.URL.Query().Get("sales_person"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeLifecycleError distinguishes validation failures from missing records
// and genuine faults.
func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case strings.Contains(err.Error(), "already completed"):
		// Restarting or re-visiting a completed route is a state conflict.
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
