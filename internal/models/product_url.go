package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductURL is a single product-page URL discovered from a listing walk.
// URLs are unique across the collection; rediscovery of a known URL is
// skipped at ingestion. Batched and BatchID move together: a URL is batched
// exactly when it carries a batch id, and the assignment is permanent.
type ProductURL struct {
	ID        string    `json:"id" bson:"id"`
	URL       string    `json:"url" bson:"url"`
	SourceID  string    `json:"source_id" bson:"source_id"`
	ListingID string    `json:"listing_id" bson:"listing_id"`
	PageIndex int       `json:"page_index" bson:"page_index"`
	Batched   bool      `json:"batched" bson:"batched"`
	BatchID   *string   `json:"batch_id" bson:"batch_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewProductURL creates an unbatched product URL discovered on the given
// listing at the given page rank.
func NewProductURL(url, sourceID, listingID string, pageIndex int) *ProductURL {
	return &ProductURL{
		ID:        uuid.New().String(),
		URL:       url,
		SourceID:  sourceID,
		ListingID: listingID,
		PageIndex: pageIndex,
		Batched:   false,
		BatchID:   nil,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate validates the product URL fields
func (p *ProductURL) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product URL ID is required")
	}
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("product URL is required")
	}
	if p.SourceID == "" {
		return fmt.Errorf("product URL source_id is required")
	}
	if p.ListingID == "" {
		return fmt.Errorf("product URL listing_id is required")
	}
	if p.PageIndex < 0 {
		return fmt.Errorf("product URL page_index cannot be negative")
	}
	if p.Batched && p.BatchID == nil {
		return fmt.Errorf("batched product URL must carry a batch_id")
	}
	if !p.Batched && p.BatchID != nil {
		return fmt.Errorf("unbatched product URL cannot carry a batch_id")
	}
	return nil
}

// AssignBatch marks the URL as batched into the given batch. Assignment is
// permanent; reassigning to a different batch is an error.
func (p *ProductURL) AssignBatch(batchID string) error {
	if p.Batched {
		return fmt.Errorf("product URL %s already assigned to batch %s", p.ID, *p.BatchID)
	}
	p.Batched = true
	p.BatchID = &batchID
	return nil
}
