// Package handlers implements the HTTP API handlers.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/jaehyun-dev/concord/internal/engine"
	"github.com/jaehyun-dev/concord/internal/store"
	"github.com/jaehyun-dev/concord/pkg/logger"
)

// runTimeout bounds a background run triggered over the API.
const runTimeout = 30 * time.Minute

// RunHandler serves run results and triggers new runs.
type RunHandler struct {
	repo    *store.Repository // nil when persistence is disabled
	eng     *engine.Engine
	logger  *logger.Logger
	running atomic.Bool
}

// NewRunHandler creates a run handler.
func NewRunHandler(repo *store.Repository, eng *engine.Engine, log *logger.Logger) *RunHandler {
	return &RunHandler{
		repo:   repo,
		eng:    eng,
		logger: log,
	}
}

// GetLatestRun returns the most recent stored run header.
// GET /api/v1/runs/latest
func (h *RunHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	summary, err := h.repo.LatestRun(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest run")
		respondError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}
	if summary == nil {
		respondError(w, http.StatusNotFound, "no runs recorded yet")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetConsensus returns the stored consensus records of one run.
// GET /api/v1/runs/{id}/consensus
func (h *RunHandler) GetConsensus(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	runID := mux.Vars(r)["id"]
	records, err := h.repo.ConsensusRecords(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load consensus records")
		respondError(w, http.StatusInternalServerError, "failed to load consensus records")
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"records": records,
	})
}

// GetPortfolio returns the stored portfolio of one run.
// GET /api/v1/runs/{id}/portfolio
func (h *RunHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	runID := mux.Vars(r)["id"]
	pf, err := h.repo.Portfolio(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load portfolio")
		respondError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}
	if len(pf.Entries) == 0 {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	respondJSON(w, http.StatusOK, pf)
}

// TriggerRun starts a pipeline run in the background. Only one run at a time;
// a second trigger while one is active returns 409.
// POST /api/v1/run
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}

	go func() {
		defer h.running.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		result, err := h.eng.Run(ctx)
		if err != nil {
			h.logger.WithError(err).Error("Triggered run failed")
			return
		}
		h.logger.WithFields(map[string]interface{}{
			"run_id":  result.Run.RunID,
			"records": len(result.Records),
		}).Info("Triggered run completed")
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "run started"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
