package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-leads/internal/infra/cache"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type RunReader interface {
	Get(ctx context.Context, runID string) (*usecase.RunRecord, error)
}

type RunHandler struct {
	Runs RunReader
}

func NewRunHandler(runs RunReader) *RunHandler {
	return &RunHandler{Runs: runs}
}

// Get (GET /ingestion/runs/{id})
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "id is required")
		return
	}

	rec, err := h.Runs.Get(r.Context(), id)
	if errors.Is(err, cache.ErrRunNotFound) {
		writeErrorResponse(w, http.StatusNotFound, "RUN_NOT_FOUND", "ingestion run not found or expired")
		return
	}
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
