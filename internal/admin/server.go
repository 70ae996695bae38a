// Package admin exposes the local operations endpoints: health, metrics, and
// the recent outcome records.
package admin

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/ayanamist/internal/ledger"
	"github.com/ent0n29/ayanamist/internal/observability"
)

const defaultRecordLimit = 50

// Server serves the admin HTTP surface. It is meant for localhost only and
// carries no authentication.
type Server struct {
	store ledger.Store
	ready func() bool
}

func New(store ledger.Store, ready func() bool) *Server {
	return &Server{store: store, ready: ready}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/records", s.handleListRecords)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.ready != nil && !s.ready() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "starting",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondJSON(w, http.StatusOK, map[string]any{"records": []ledger.Record{}})
		return
	}

	limit := defaultRecordLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
