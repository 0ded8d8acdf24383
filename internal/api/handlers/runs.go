package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caseybackes/galvanize-capstone-one/internal/api/models"
)

// RunRepository defines the read operations on stored runs
type RunRepository interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	GetPopular(ctx context.Context, runID, window string) ([]models.PopularStation, error)
	GetProximity(ctx context.Context, runID string) (*models.Proximity, error)
}

// RunHandler handles HTTP requests for run results
type RunHandler struct {
	repo RunRepository
}

// NewRunHandler creates a new handler with the given repository
func NewRunHandler(repo RunRepository) *RunHandler {
	return &RunHandler{repo: repo}
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ListRunsResponse is the JSON response for GET /api/runs
type ListRunsResponse struct {
	Runs  []models.Run `json:"runs"`
	Count int          `json:"count"`
}

// PopularResponse is the JSON response for GET /api/runs/{runId}/popular
type PopularResponse struct {
	RunID    string                  `json:"runId"`
	Window   string                  `json:"window,omitempty"`
	Stations []models.PopularStation `json:"stations"`
	Count    int                     `json:"count"`
}

// ProximityResponse is the JSON response for GET /api/runs/{runId}/proximity
type ProximityResponse struct {
	RunID string `json:"runId"`
	models.Proximity
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil && status >= 500 {
		resp.Details = map[string]interface{}{"error": err.Error()}
	}
	writeJSON(w, status, resp)
}

// ListRuns handles GET /api/runs
// Optional query parameter limit caps the number of runs returned
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve runs", err)
		return
	}

	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /api/runs/{runId}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runID := chi.URLParam(r, "runId")
	run, err := h.repo.GetRun(ctx, runID)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve run", err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// GetPopular handles GET /api/runs/{runId}/popular
// Optional query parameter window selects a single window
func (h *RunHandler) GetPopular(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runID := chi.URLParam(r, "runId")
	window := r.URL.Query().Get("window")

	stations, err := h.repo.GetPopular(ctx, runID, window)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve popular stations", err)
		return
	}
	if window != "" && len(stations) == 0 {
		writeError(w, http.StatusNotFound, "No results for window "+window, nil)
		return
	}

	writeJSON(w, http.StatusOK, PopularResponse{
		RunID:    runID,
		Window:   window,
		Stations: stations,
		Count:    len(stations),
	})
}

// GetProximity handles GET /api/runs/{runId}/proximity
func (h *RunHandler) GetProximity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runID := chi.URLParam(r, "runId")
	prox, err := h.repo.GetProximity(ctx, runID)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No proximity results for run", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve proximity results", err)
		return
	}

	writeJSON(w, http.StatusOK, ProximityResponse{RunID: runID, Proximity: *prox})
}
