package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
	"github.com/veranemoloko/novel-downloader/internal/validation"
)

// JobServiceI defines the interface for job-related business logic.
type JobServiceI interface {
	Start(ctx context.Context, req *domain.CreateJobRequest) (*domain.JobRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, keyword string) ([]domain.Novel, error)
}

// JobHandler handles HTTP requests for download jobs and search.
type JobHandler struct {
	jobService JobServiceI
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler with the provided service and logger.
func NewJobHandler(jobService JobServiceI, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		validator:  validation.New(),
		logger:     logger,
	}
}

// Search handles GET /search?q= and returns matching novels.
func (h *JobHandler) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")

	novels, err := h.jobService.Search(r.Context(), keyword)
	if err != nil {
		h.logger.Error("search failed", "keyword", keyword, "error", err)
		if errors.Is(err, errpkg.ErrTransport) {
			writeError(w, http.StatusBadGateway, "search source unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if novels == nil {
		novels = []domain.Novel{}
	}
	writeJSON(w, http.StatusOK, novels)
}

// CreateJob handles POST /jobs and starts a download.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.jobService.Start(ctx, &req)
	if err != nil {
		if errors.Is(err, errpkg.ErrShuttingDown) {
			writeError(w, http.StatusServiceUnavailable, "service is shutting down")
			return
		}
		h.logger.Error("failed to start job", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("job created", "job_id", rec.ID, "novel", rec.Name)

	writeJSON(w, http.StatusCreated, map[string]any{
		"job_id": rec.ID,
	})
}

// GetJob handles GET /jobs/{jobID}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r)
	if !ok {
		return
	}

	rec, err := h.jobService.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, errpkg.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("failed to get job", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, domain.NewJobResponse(rec))
}

// CancelJob handles POST /jobs/{jobID}/cancel.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseJobID(w, r)
	if !ok {
		return
	}

	if err := h.jobService.Cancel(r.Context(), jobID); err != nil {
		if errors.Is(err, errpkg.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("failed to cancel job", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
	})
}

func parseJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID")
		return uuid.Nil, false
	}
	return jobID, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
