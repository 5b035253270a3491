package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vestio/internal/interfaces"
)

// DashboardHandler serves aggregate pipeline counts
type DashboardHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(storage interfaces.StorageManager, logger arbor.ILogger) *DashboardHandler {
	return &DashboardHandler{
		storage: storage,
		logger:  logger,
	}
}

// DashboardHandler handles GET /api/dashboard
func (h *DashboardHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx := r.Context()

	sources, err := h.storage.SourceStorage().Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count sources")
		WriteError(w, http.StatusInternalServerError, "Failed to collect dashboard counts")
		return
	}

	listings, err := h.storage.ListingStorage().Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count listings")
		WriteError(w, http.StatusInternalServerError, "Failed to collect dashboard counts")
		return
	}

	productURLs, err := h.storage.ProductURLStorage().Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count product urls")
		WriteError(w, http.StatusInternalServerError, "Failed to collect dashboard counts")
		return
	}

	batches, err := h.storage.BatchStorage().Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count batches")
		WriteError(w, http.StatusInternalServerError, "Failed to collect dashboard counts")
		return
	}

	products, err := h.storage.ProductStorage().Count(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count products")
		WriteError(w, http.StatusInternalServerError, "Failed to collect dashboard counts")
		return
	}

	statuses, err := h.storage.StatusStorage().CountByState(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count statuses")
		WriteError(w, http.StatusInternalServerError, "Failed to collect dashboard counts")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sources":      sources,
		"listings":     listings,
		"product_urls": productURLs,
		"batches":      batches,
		"products":     products,
		"statuses":     statuses,
	})
}
