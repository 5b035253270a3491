package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/models"
)

func TestCreateListingHandler_AttachesToSource(t *testing.T) {
	storage := newAdminStorage()
	handler := NewListingsHandler(storage, arbor.NewLogger())

	source := models.NewSource("Amazon India", "https://www.amazon.in")
	storage.sources.sources = append(storage.sources.sources, source)

	body := `{"source_id":"` + source.ID + `","url":"https://www.amazon.in/s?k=tshirt"}`
	req := httptest.NewRequest("POST", "/api/listings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.CreateListingHandler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Listing
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if created.SourceID != source.ID {
		t.Errorf("Expected source_id %s, got %s", source.ID, created.SourceID)
	}
	if !created.Active {
		t.Error("Listing should inherit active from its source")
	}
	if created.LastListed != nil {
		t.Error("New listings start never-listed")
	}

	// The source's listing set moved with the create.
	if source.ListingCount != 1 || len(source.Listings) != 1 {
		t.Errorf("Expected source to count 1 listing, got %d", source.ListingCount)
	}
	if source.Listings[0] != created.ID {
		t.Errorf("Source references %s, expected %s", source.Listings[0], created.ID)
	}
}

func TestCreateListingHandler_UnknownSource(t *testing.T) {
	storage := newAdminStorage()
	handler := NewListingsHandler(storage, arbor.NewLogger())

	body := `{"source_id":"missing","url":"https://www.amazon.in/s?k=tshirt"}`
	req := httptest.NewRequest("POST", "/api/listings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.CreateListingHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if len(storage.listings.listings) != 0 {
		t.Error("No listing should be created for an unknown source")
	}
}

func TestCreateListingHandler_ExplicitInactive(t *testing.T) {
	storage := newAdminStorage()
	handler := NewListingsHandler(storage, arbor.NewLogger())

	source := models.NewSource("Amazon India", "https://www.amazon.in")
	storage.sources.sources = append(storage.sources.sources, source)

	body := `{"source_id":"` + source.ID + `","url":"https://www.amazon.in/s?k=tshirt","active":false}`
	req := httptest.NewRequest("POST", "/api/listings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.CreateListingHandler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var created models.Listing
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if created.Active {
		t.Error("Explicit active=false must override the source default")
	}
}

func TestDeleteListingHandler_DetachesFromSource(t *testing.T) {
	storage := newAdminStorage()
	handler := NewListingsHandler(storage, arbor.NewLogger())

	source := models.NewSource("Amazon India", "https://www.amazon.in")
	listing := models.NewListing(source.ID, "https://www.amazon.in/s?k=tshirt", true)
	source.Listings = []string{listing.ID}
	source.ListingCount = 1
	storage.sources.sources = append(storage.sources.sources, source)
	storage.listings.listings = append(storage.listings.listings, listing)

	req := httptest.NewRequest("DELETE", "/api/listings/"+listing.ID, nil)
	rec := httptest.NewRecorder()
	handler.DeleteListingHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(storage.listings.deleted) != 1 {
		t.Fatalf("Expected 1 deleted listing, got %d", len(storage.listings.deleted))
	}
	if source.ListingCount != 0 {
		t.Errorf("Expected the source to drop to 0 listings, got %d", source.ListingCount)
	}
}

func TestListListingsHandler_FiltersBySource(t *testing.T) {
	storage := newAdminStorage()
	handler := NewListingsHandler(storage, arbor.NewLogger())

	a := models.NewListing("source-a", "https://www.amazon.in/s?k=tshirt", true)
	b := models.NewListing("source-b", "https://www.myntra.com/tshirts", true)
	storage.listings.listings = append(storage.listings.listings, a, b)

	req := httptest.NewRequest("GET", "/api/listings?source_id=source-a", nil)
	rec := httptest.NewRecorder()
	handler.ListListingsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var got []*models.Listing
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Expected just the source-a listing, got %d entries", len(got))
	}
}
