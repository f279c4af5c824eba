package dashboard

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"review-analyzer/internal/adapters/artifact"
	"review-analyzer/internal/domain"
	"review-analyzer/internal/usecase/jobs"
)

//go:embed index.html
var indexHTML []byte

const (
	msgEmptyURL   = "Please enter a product link."
	msgInvalidURL = "Invalid URL. Missing 'dkp-' identifier."
)

type jobService interface {
	Submit(ctx context.Context, rawURL string) (domain.JobStatus, error)
	View(ctx context.Context, jobID string) (jobs.View, error)
}

// Handler обслуживает веб-дашборд анализа отзывов.
type Handler struct {
	jobs      jobService
	artifacts domain.ArtifactStore
	log       zerolog.Logger
}

// NewHandler создаёт обработчик дашборда.
func NewHandler(jobs jobService, artifacts domain.ArtifactStore, logger zerolog.Logger) *Handler {
	return &Handler{jobs: jobs, artifacts: artifacts, log: logger.With().Str("component", "dashboard").Logger()}
}

// Mount регистрирует маршруты дашборда.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.index)
	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", h.submit)
		r.Get("/jobs/{jobID}", h.status)
		r.Get("/reports/{productID}/chart", h.chart)
	})
}

type submitRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	} else {
		req.URL = r.FormValue("url")
	}

	status, err := h.jobs.Submit(r.Context(), req.URL)
	switch {
	case errors.Is(err, domain.ErrEmptyURL):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgEmptyURL})
		return
	case errors.Is(err, domain.ErrInvalidProductURL):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidURL})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("dashboard: не удалось поставить задачу")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "analysis queue is unavailable"})
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	view, err := h.jobs.View(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, domain.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard: не удалось прочитать статус")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "status unavailable"})
		return
	}
	if view.Lines == nil {
		view.Lines = []string{}
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	productID := domain.ProductID(id)
	rc, err := h.artifacts.Open(r.Context(), domain.ChartName(productID))
	if errors.Is(err, artifact.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "chart not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("product_id", id).Msg("dashboard: не удалось открыть график")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "chart unavailable"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/png")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+domain.DownloadName(productID)+`"`)
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn().Err(err).Int64("product_id", id).Msg("dashboard: график передан не полностью")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
