// -----------------------------------------------------------------------
// Last Modified: Friday, 21st August 2026 9:41:07 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// ScrapeHandler handles HTTP requests for scrape job submission and lookup
type ScrapeHandler struct {
	storage interfaces.StorageManager
	queue   interfaces.JobQueue
	logger  arbor.ILogger
}

// NewScrapeHandler creates a new ScrapeHandler
func NewScrapeHandler(storage interfaces.StorageManager, queue interfaces.JobQueue, logger arbor.ILogger) *ScrapeHandler {
	return &ScrapeHandler{
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

// SubmitScrapeHandler handles POST /api/scrape
func (h *ScrapeHandler) SubmitScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode scrape request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Warn().Err(err).Str("url", req.WebpageURL).Msg("Scrape request validation failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := models.NewJob(req.WebpageURL, models.JobPriority(req.Priority), models.JobType(req.TypePage))
	if err := h.storage.JobStorage().Create(r.Context(), job); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist job")
		WriteError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	task := &interfaces.ScrapeTask{
		JobID:      job.ID,
		WebpageURL: job.WebpageURL,
		TypePage:   job.TypePage,
	}
	if err := h.queue.Enqueue(r.Context(), task, job.Priority); err != nil {
		h.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to enqueue job")
		// The job record exists but no worker will ever see it; close it out.
		if uerr := h.storage.JobStorage().UpdateStatus(r.Context(), job.ID, models.JobFailed, "enqueue failed"); uerr != nil {
			h.logger.Warn().Err(uerr).Str("job_id", job.ID).Msg("Failed to fail unqueued job")
		}
		WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	h.logger.Info().
		Str("job_id", job.ID).
		Str("priority", string(job.Priority)).
		Str("type_page", string(job.TypePage)).
		Msg("Scrape job accepted")

	WriteJSON(w, http.StatusOK, models.ScrapeResponse{JobID: job.ID})
}

// JobStatusHandler handles GET /api/scrape/{job_id}/status/
func (h *ScrapeHandler) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID := extractIDFromPath(r.URL.Path, "/api/scrape/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.storage.JobStorage().Get(r.Context(), jobID)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// JobResultHandler handles GET /api/scrape/{job_id}/result/
func (h *ScrapeHandler) JobResultHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID := extractIDFromPath(r.URL.Path, "/api/scrape/")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.storage.JobStorage().Get(r.Context(), jobID)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	// Results only exist once the job has finished.
	if !job.Status.IsTerminal() {
		WriteError(w, http.StatusNotFound, "Job result not available yet")
		return
	}

	result, err := h.storage.JobResultStorage().GetByJobID(r.Context(), jobID)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Job result not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job result")
		WriteError(w, http.StatusInternalServerError, "Failed to get job result")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
