// Package model serves the model generation HTTP API: submit an assumptions
// document, list recent runs, and fetch a run's record, workbook, or report.
package model

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/pipeline"
	"finmodel/pkg/core/report"
	"finmodel/pkg/core/store"
	"finmodel/pkg/models"
)

// maxDocumentBytes bounds the generate request body. Assumption documents
// are a few kilobytes; anything near this limit is not one.
const maxDocumentBytes = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler owns the model API endpoints. Generation goes through the
// orchestrator; reads go straight to the run repository.
type Handler struct {
	logger *zap.Logger
	orch   *pipeline.Orchestrator
	repo   store.RunRepository
}

// NewHandler wires the endpoints. A nil logger disables logging.
func NewHandler(logger *zap.Logger, orch *pipeline.Orchestrator, repo store.RunRepository) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{logger: logger, orch: orch, repo: repo}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate parses the submitted assumptions document, runs a build, and
// responds with the run record. Documents that fail to parse get 400;
// documents that parse but fail validation get 422.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}
	doc, err := assumption.ParseDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.orch.Run(r.Context(), doc)
	if err != nil {
		var invalid *assumption.InvalidAssumptionError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusUnprocessableEntity, invalid.Error())
			return
		}
		h.logger.Error("model generation failed",
			zap.String("company", doc.Company),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "model generation failed")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Recent lists runs newest first. ?limit caps the page, default 20.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	runs, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*models.ModelRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Show returns one run record by ID.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Workbook streams the run's xlsx file as a download.
func (h *Handler) Workbook(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+run.ID+`.xlsx"`)
	http.ServeFile(w, r, run.WorkbookPath)
}

// Report renders the run's summary report as HTML.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	html, err := report.HTML(run)
	if err != nil {
		h.logger.Error("render report failed", zap.String("run_id", run.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

// loadRun resolves the {id} route parameter, writing the error response
// itself when the run cannot be served.
func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*models.ModelRun, bool) {
	id := chi.URLParam(r, "id")
	run, err := h.repo.Load(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("load run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
