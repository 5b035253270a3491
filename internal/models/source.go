package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source represents an e-commerce website products are ingested from.
// A Source owns its Listings: the listing set and listing_count move
// together, and a Source cannot be deleted while listings remain.
type Source struct {
	ID           string    `json:"id" bson:"id"`
	Name         string    `json:"name" bson:"name"`
	BaseURL      string    `json:"base_url" bson:"base_url"`
	Active       bool      `json:"active" bson:"active"`
	Listings     []string  `json:"listings" bson:"listings"` // Listing IDs owned by this source
	ListingCount int       `json:"listing_count" bson:"listing_count"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// NewSource creates an active source with no listings.
func NewSource(name, baseURL string) *Source {
	return &Source{
		ID:           uuid.New().String(),
		Name:         name,
		BaseURL:      baseURL,
		Active:       true,
		Listings:     []string{},
		ListingCount: 0,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate validates the source fields
func (s *Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source ID is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("source name is required")
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("source base URL is required")
	}
	if !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
		return fmt.Errorf("source base URL must start with http:// or https://")
	}
	if s.ListingCount != len(s.Listings) {
		return fmt.Errorf("source listing_count %d does not match %d listings", s.ListingCount, len(s.Listings))
	}
	return nil
}

// HasListings reports whether any listings still reference this source.
// Deletion is refused while this is true.
func (s *Source) HasListings() bool {
	return len(s.Listings) > 0
}
