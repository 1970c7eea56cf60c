package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/varcalc/internal/audit"
	"github.com/wonny/varcalc/pkg/logger"
)

// RunsHandler exposes the run journal (read only)
type RunsHandler struct {
	journal audit.Journal // nil: 저널 비활성
	logger  *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(journal audit.Journal, log *logger.Logger) *RunsHandler {
	return &RunsHandler{journal: journal, logger: log.Component("api.runs")}
}

// Get returns one journaled run
// GET /api/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "Run journal disabled (set SQLITE_PATH or DATABASE_URL)")
		return
	}

	rec, err := h.journal.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if !errors.Is(err, audit.ErrRunNotFound) {
			h.logger.WithError(err).Error("Failed to get run")
		}
		respondRiskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// List returns the newest journaled runs
// GET /api/runs?symbol=INFY.NS&limit=20
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "Run journal disabled (set SQLITE_PATH or DATABASE_URL)")
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected non-negative integer)")
			return
		}
		limit = n
	}
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))

	recs, err := h.journal.Recent(r.Context(), symbol, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	if recs == nil {
		recs = []audit.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  recs,
		"count": len(recs),
	})
}
