package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/upload"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type Ingester interface {
	Execute(ctx context.Context, source entity.LeadSource) (*usecase.RunSummary, error)
}

type LeadLister interface {
	List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error)
}

type StatusSetter interface {
	Execute(ctx context.Context, input usecase.SetLeadStatusInput) (*usecase.SetLeadStatusOutput, error)
}

// FormsSourceFactory builds a lead forms source for the given pages.
type FormsSourceFactory func(pageIDs []string) entity.LeadSource

type LeadHandler struct {
	Ingest    Ingester
	Leads     LeadLister
	SetStatus StatusSetter
	Forms     FormsSourceFactory

	DefaultPageIDs []string
	MaxUploadBytes int64
}

func NewLeadHandler(ingest Ingester, leads LeadLister, setStatus StatusSetter, forms FormsSourceFactory, defaultPageIDs []string, maxUploadBytes int64) *LeadHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = upload.DefaultMaxBytes
	}
	return &LeadHandler{
		Ingest:         ingest,
		Leads:          leads,
		SetStatus:      setStatus,
		Forms:          forms,
		DefaultPageIDs: defaultPageIDs,
		MaxUploadBytes: maxUploadBytes,
	}
}

// RunResponse is what both ingestion endpoints answer with.
type RunResponse struct {
	*usecase.RunSummary
	Status usecase.RunStatus `json:"status"`
}

// Upload (POST /leads/upload) ingests the multipart "file" field as CSV.
func (h *LeadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// leave room for the multipart envelope; the CSV source enforces the
	// exact limit on the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+1<<20)

	mr, err := r.MultipartReader()
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "malformed multipart body")
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		zap.L().Info("csv upload received", zap.String("filename", part.FileName()))
		summary, err := h.Ingest.Execute(r.Context(), upload.NewCSVSource(part, h.MaxUploadBytes))
		part.Close()
		if err != nil {
			writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RunResponse{RunSummary: summary, Status: summary.Outcome()})
		return
	}

	writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "file is required")
}

type SyncRequest struct {
	PageIDs []string `json:"page_ids"`
}

// Sync (POST /leads/sync) pulls the lead forms API once. The body is
// optional; without page_ids the configured pages are used.
func (h *LeadHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
			return
		}
	}

	pageIDs := req.PageIDs
	if len(pageIDs) == 0 {
		pageIDs = h.DefaultPageIDs
	}
	if errs := usecase.ValidatePageIDs(pageIDs); len(errs) > 0 {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, errs[0].Error())
		return
	}

	summary, err := h.Ingest.Execute(r.Context(), h.Forms(pageIDs))
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{RunSummary: summary, Status: summary.Outcome()})
}

// List (GET /leads) filters by assigned_to and status, newest first.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter entity.LeadFilter

	if v := q.Get("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "assigned_to must be a positive integer")
			return
		}
		filter.AssignedTo = &id
	}
	if v := q.Get("status"); v != "" {
		status := entity.LeadStatus(v)
		if !status.Valid() {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "status must be new, contacted or converted")
			return
		}
		filter.Status = status
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	leads, err := h.Leads.List(r.Context(), filter)
	if err != nil {
		writeUseCaseError(w, &usecase.TechnicalError{Code: usecase.CodeStoreUnavailable, Message: "failed to list leads", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// UpdateStatus (POST /leads/{id}/status)
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "id must be an integer")
		return
	}

	var input usecase.SetLeadStatusInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}
	input.LeadID = id

	out, err := h.SetStatus.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
