package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Listing represents a URL within a Source that paginates into product URLs.
// LastListed is nil until the first listing scrape completes; the scheduler
// always picks the listing with the smallest LastListed (nil first), so every
// listing eventually gets its turn.
type Listing struct {
	ID         string     `json:"id" bson:"id"`
	SourceID   string     `json:"source_id" bson:"source_id"`
	URL        string     `json:"url" bson:"url"`
	Active     bool       `json:"active" bson:"active"`
	LastListed *time.Time `json:"last_listed" bson:"last_listed"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

// NewListing creates a listing under the given source. Active defaults from
// the owning source.
func NewListing(sourceID, url string, active bool) *Listing {
	return &Listing{
		ID:         uuid.New().String(),
		SourceID:   sourceID,
		URL:        url,
		Active:     active,
		LastListed: nil,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate validates the listing fields
func (l *Listing) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("listing ID is required")
	}
	if l.SourceID == "" {
		return fmt.Errorf("listing source_id is required")
	}
	if strings.TrimSpace(l.URL) == "" {
		return fmt.Errorf("listing URL is required")
	}
	return nil
}

// MarkListed records a completed listing scrape. LastListed only moves
// forward so out-of-order reconciliation cannot rewind it.
func (l *Listing) MarkListed(at time.Time) {
	if l.LastListed == nil || at.After(*l.LastListed) {
		l.LastListed = &at
	}
}
