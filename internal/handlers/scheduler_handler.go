package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/services/ingest"
)

// SchedulerHandler handles pipeline trigger and task status endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// TriggerListingScrapeHandler handles POST /api/trigger-listing-scrape
func (h *SchedulerHandler) TriggerListingScrapeHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, ingest.TaskListingScrape)
}

// TriggerBatchCreateHandler handles POST /api/trigger-batch-create
func (h *SchedulerHandler) TriggerBatchCreateHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, ingest.TaskBatchCreate)
}

// TriggerBatchScrapeHandler handles POST /api/trigger-batch-scrape
func (h *SchedulerHandler) TriggerBatchScrapeHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, ingest.TaskBatchScrape)
}

// TriggerStatusUpdateHandler handles POST /api/trigger-status-update
func (h *SchedulerHandler) TriggerStatusUpdateHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, ingest.TaskStatusUpdate)
}

// TaskStatusesHandler handles GET /api/scheduler/tasks
func (h *SchedulerHandler) TaskStatusesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.schedulerService.GetAllTaskStatuses())
}

// trigger fires one asynchronous execution of the named task
func (h *SchedulerHandler) trigger(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.schedulerService.TriggerTask(name); err != nil {
		h.logger.Warn().Err(err).Str("task_name", name).Msg("Task trigger refused")
		switch {
		case strings.Contains(err.Error(), "not found"):
			WriteError(w, http.StatusNotFound, err.Error())
		case strings.Contains(err.Error(), "already running"):
			WriteError(w, http.StatusConflict, err.Error())
		default:
			WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.logger.Info().Str("task_name", name).Msg("Task triggered via API")
	WriteStarted(w, name+" triggered")
}
