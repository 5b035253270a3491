package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch is a bounded group of product URLs scheduled together for
// product-detail scraping. BatchSize always equals len(URLs).
// LastProcessed is nil until the batch is first dispatched; the scheduler
// treats nil as oldest, so fresh batches are dispatched first. A batch can
// be dispatched repeatedly; the additive update rule at the product store
// absorbs the duplicates.
type Batch struct {
	ID            string     `json:"id" bson:"id"`
	BatchSize     int        `json:"batch_size" bson:"batch_size"`
	URLs          []string   `json:"urls" bson:"urls"` // ProductURL IDs assigned to this batch
	LastProcessed *time.Time `json:"last_processed" bson:"last_processed"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}

// NewBatch creates a never-processed batch over the given product URL IDs.
func NewBatch(urlIDs []string) *Batch {
	ids := make([]string, len(urlIDs))
	copy(ids, urlIDs)
	return &Batch{
		ID:            uuid.New().String(),
		BatchSize:     len(ids),
		URLs:          ids,
		LastProcessed: nil,
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate validates the batch fields
func (b *Batch) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("batch ID is required")
	}
	if b.BatchSize != len(b.URLs) {
		return fmt.Errorf("batch_size %d does not match %d urls", b.BatchSize, len(b.URLs))
	}
	return nil
}

// HasCapacity reports whether the batch can take more URLs under the given
// maximum size.
func (b *Batch) HasCapacity(maxSize int) bool {
	return b.BatchSize < maxSize
}

// Remaining returns how many URLs fit before the batch reaches maxSize.
func (b *Batch) Remaining(maxSize int) int {
	if b.BatchSize >= maxSize {
		return 0
	}
	return maxSize - b.BatchSize
}

// AddURL appends a product URL ID and bumps the size counter.
func (b *Batch) AddURL(urlID string) {
	b.URLs = append(b.URLs, urlID)
	b.BatchSize = len(b.URLs)
}
