package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tovenja/quench/internal/adapters/runstore"
)

// RunsHandler serves the recorded run history.
type RunsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps Dependencies, maxLimit int) *RunsHandler {
	return &RunsHandler{deps: deps, maxLimit: maxLimit}
}

type runsResponse struct {
	Runs  []runstore.Run `json:"runs"`
	Count int            `json:"count"`
}

// HandleGetRuns processes GET /v1/runs requests.
func (h *RunsHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit exceeds maximum of %d", ErrBadRequest, h.maxLimit))
			return
		}
		limit = n
	}

	runs, err := h.deps.Runs(r.Context(), limit)
	if err != nil {
		if isUnavailable(err) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", nil)
		return
	}
	if runs == nil {
		runs = []runstore.Run{}
	}

	writeJSON(w, http.StatusOK, runsResponse{Runs: runs, Count: len(runs)})
}
