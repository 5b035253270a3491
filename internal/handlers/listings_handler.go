package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// ListingsHandler handles HTTP requests for listing page management
type ListingsHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewListingsHandler creates a new ListingsHandler
func NewListingsHandler(storage interfaces.StorageManager, logger arbor.ILogger) *ListingsHandler {
	return &ListingsHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListListingsHandler handles GET /api/listings with optional ?source_id= filter
func (h *ListingsHandler) ListListingsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	var listings []*models.Listing
	var err error
	if sourceID := r.URL.Query().Get("source_id"); sourceID != "" {
		listings, err = h.storage.ListingStorage().ListBySource(r.Context(), sourceID)
	} else {
		listings, err = h.storage.ListingStorage().List(r.Context())
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list listings")
		WriteError(w, http.StatusInternalServerError, "Failed to list listings")
		return
	}

	if listings == nil {
		listings = []*models.Listing{}
	}

	WriteJSON(w, http.StatusOK, listings)
}

// GetListingHandler handles GET /api/listings/{id}
func (h *ListingsHandler) GetListingHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/listings/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Listing ID is required")
		return
	}

	listing, err := h.storage.ListingStorage().Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Listing not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get listing")
		WriteError(w, http.StatusInternalServerError, "Failed to get listing")
		return
	}

	WriteJSON(w, http.StatusOK, listing)
}

// CreateListingHandler handles POST /api/listings
func (h *ListingsHandler) CreateListingHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var body struct {
		SourceID string `json:"source_id"`
		URL      string `json:"url"`
		Active   *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode request body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source, err := h.storage.SourceStorage().Get(r.Context(), body.SourceID)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Source not found")
			return
		}
		h.logger.Error().Err(err).Str("source_id", body.SourceID).Msg("Failed to get source")
		WriteError(w, http.StatusInternalServerError, "Failed to get source")
		return
	}

	// Active defaults from the owning source unless explicitly set.
	active := source.Active
	if body.Active != nil {
		active = *body.Active
	}

	listing := models.NewListing(source.ID, body.URL, active)
	if err := listing.Validate(); err != nil {
		h.logger.Warn().Err(err).Str("url", body.URL).Msg("Listing validation failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.ListingStorage().Create(r.Context(), listing); err != nil {
		h.logger.Error().Err(err).Msg("Failed to create listing")
		WriteError(w, http.StatusInternalServerError, "Failed to create listing")
		return
	}

	if err := h.storage.SourceStorage().AddListing(r.Context(), source.ID, listing.ID); err != nil {
		h.logger.Error().Err(err).Str("source_id", source.ID).Msg("Failed to attach listing to source")
		WriteError(w, http.StatusInternalServerError, "Failed to attach listing to source")
		return
	}

	h.logger.Info().
		Str("id", listing.ID).
		Str("source_id", source.ID).
		Msg("Listing created")
	WriteJSON(w, http.StatusCreated, listing)
}

// UpdateListingHandler handles PUT /api/listings/{id}
func (h *ListingsHandler) UpdateListingHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/listings/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Listing ID is required")
		return
	}

	listing, err := h.storage.ListingStorage().Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Listing not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get listing")
		WriteError(w, http.StatusInternalServerError, "Failed to get listing")
		return
	}

	var body struct {
		URL    *string `json:"url"`
		Active *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode request body")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.URL != nil {
		listing.URL = *body.URL
	}
	if body.Active != nil {
		listing.Active = *body.Active
	}

	if err := listing.Validate(); err != nil {
		h.logger.Warn().Err(err).Str("id", id).Msg("Listing validation failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.ListingStorage().Update(r.Context(), listing); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to update listing")
		WriteError(w, http.StatusInternalServerError, "Failed to update listing")
		return
	}

	WriteJSON(w, http.StatusOK, listing)
}

// DeleteListingHandler handles DELETE /api/listings/{id}
func (h *ListingsHandler) DeleteListingHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/listings/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Listing ID is required")
		return
	}

	listing, err := h.storage.ListingStorage().Get(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			WriteError(w, http.StatusNotFound, "Listing not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get listing")
		WriteError(w, http.StatusInternalServerError, "Failed to get listing")
		return
	}

	if err := h.storage.ListingStorage().Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete listing")
		WriteError(w, http.StatusInternalServerError, "Failed to delete listing")
		return
	}

	if err := h.storage.SourceStorage().RemoveListing(r.Context(), listing.SourceID, listing.ID); err != nil {
		h.logger.Error().Err(err).Str("source_id", listing.SourceID).Msg("Failed to detach listing from source")
		WriteError(w, http.StatusInternalServerError, "Failed to detach listing from source")
		return
	}

	h.logger.Info().Str("id", id).Msg("Listing deleted")
	WriteSuccess(w, "Listing deleted")
}
