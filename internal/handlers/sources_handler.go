// -----------------------------------------------------------------------
// Last Modified: Friday, 21st August 2026 9:44:18 am
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

// SourcesHandler handles HTTP requests for source management
type SourcesHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewSourcesHandler creates a new SourcesHandler
func NewSourcesHandler(storage interfaces.StorageManager, logger arbor.ILogger) *SourcesHandler {
	return &SourcesHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListSourcesHandler handles GET /api/sources
func (h *SourcesHandler) ListSourcesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	sources, err := h.storage.SourceStorage().List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list sources")
		WriteError(w, http.StatusInternalServerError, "Failed to list sources")
		return
	}

	if sources == nil {
		sources = []*models.Source{}
	}

	WriteJSON(w, http.StatusOK, sources)
}

// GetSourceHandler handles GET /api/sources/{id}
func (h *SourcesHandler) GetSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/sources/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Source ID is required")
		return
	}

	source, err := h.storage.SourceStorage().Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Source not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get source")
		WriteError(w, http.StatusInternalServerError, "Failed to get source")
		return
	}

	WriteJSON(w, http.StatusOK, source)
}

// CreateSourceHandler handles POST /api/sources
func (h *SourcesHandler) CreateSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var body struct {
		Name    string `json:"name"`
		BaseURL string `json:"base_url"`
		Active  *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode request body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source := models.NewSource(body.Name, body.BaseURL)
	if body.Active != nil {
		source.Active = *body.Active
	}

	if err := source.Validate(); err != nil {
		h.logger.Warn().Err(err).Str("name", body.Name).Msg("Source validation failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.SourceStorage().Create(r.Context(), source); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create source")
		WriteError(w, http.StatusInternalServerError, "Failed to create source")
		return
	}

	h.logger.Info().Str("id", source.ID).Str("name", source.Name).Msg("Source created")
	WriteJSON(w, http.StatusCreated, source)
}

// UpdateSourceHandler handles PUT /api/sources/{id}
func (h *SourcesHandler) UpdateSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/sources/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Source ID is required")
		return
	}

	source, err := h.storage.SourceStorage().Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Source not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get source")
		WriteError(w, http.StatusInternalServerError, "Failed to get source")
		return
	}

	var body struct {
		Name    *string `json:"name"`
		BaseURL *string `json:"base_url"`
		Active  *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode request body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Name != nil {
		source.Name = *body.Name
	}
	if body.BaseURL != nil {
		source.BaseURL = *body.BaseURL
	}
	if body.Active != nil {
		source.Active = *body.Active
	}

	if err := source.Validate(); err != nil {
		h.logger.Warn().Err(err).Str("id", id).Msg("Source validation failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.SourceStorage().Update(r.Context(), source); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to update source")
		WriteError(w, http.StatusInternalServerError, "Failed to update source")
		return
	}

	WriteJSON(w, http.StatusOK, source)
}

// DeleteSourceHandler handles DELETE /api/sources/{id}
func (h *SourcesHandler) DeleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/sources/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Source ID is required")
		return
	}

	source, err := h.storage.SourceStorage().Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Source not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get source")
		WriteError(w, http.StatusInternalServerError, "Failed to get source")
		return
	}

	// A source with listings cannot be removed; delete the listings first.
	if source.HasListings() {
		WriteError(w, http.StatusConflict, "Source still has listings")
		return
	}

	if err := h.storage.SourceStorage().Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete source")
		WriteError(w, http.StatusInternalServerError, "Failed to delete source")
		return
	}

	h.logger.Info().Str("id", id).Msg("Source deleted")
	WriteSuccess(w, "Source deleted")
}
