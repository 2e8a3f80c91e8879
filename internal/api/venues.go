package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/scoring"
	"github.com/horeca-group/horeca-cli/internal/store"
)

func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.VenueFilter{
		City:       q.Get("city"),
		Status:     model.VenueStatus(q.Get("status")),
		Priority:   model.Priority(q.Get("priority")),
		AssignedTo: q.Get("assigned_to"),
	}
	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_score must be an integer")
			return
		}
		filter.MinScore = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	venues, err := s.store.ListVenues(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

func (s *Server) createVenue(w http.ResponseWriter, r *http.Request) {
	var v model.Venue
	if !decodeBody(w, r, &v) {
		return
	}
	if v.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if v.Latitude < -90 || v.Latitude > 90 || v.Longitude < -180 || v.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	if v.Status == "" {
		v.Status = model.VenueStatusNew
	}
	if v.Priority == "" {
		v.Priority = model.PriorityMedium
	}
	v.LeadScore = scoring.LeadScore(scoring.LeadSignals{
		Rating:          v.Rating,
		ReviewCount:     v.ReviewCount,
		MissingProducts: len(v.MissingProducts),
		LastContactDate: v.LastContactDate,
	})

	if err := s.store.CreateVenue(r.Context(), &v); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) getVenue(w http.ResponseWriter, r *http.Request) {
	v, err := s.store.GetVenue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateVenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update model.VenueUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	current, err := s.store.GetVenue(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	// Recompute the lead score against the post-update signals.
	signals := scoring.LeadSignals{
		Rating:          current.Rating,
		ReviewCount:     current.ReviewCount,
		MissingProducts: len(current.MissingProducts),
		LastContactDate: current.LastContactDate,
	}
	if update.Rating != nil {
		signals.Rating = update.Rating
	}
	if update.ReviewCount != nil {
		signals.ReviewCount = update.ReviewCount
	}
	if update.MissingProducts != nil {
		signals.MissingProducts = len(*update.MissingProducts)
	}
	leadScore := scoring.LeadScore(signals)

	if err := s.store.UpdateVenue(r.Context(), id, update, leadScore, current.Priority); err != nil {
		writeStoreError(w, err)
		return
	}

	updated, err := s.store.GetVenue(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteVenue(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteVenue(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listVenueActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := s.store.ListActivities(r.Context(), chi.URLParam(r, "id"), 0)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if acts == nil {
		acts = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, acts)
}
