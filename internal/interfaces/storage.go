// -----------------------------------------------------------------------
// Last Modified: Tuesday, 18th August 2026 4:22:10 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vestio/internal/models"
)

// SourceStorage - interface for website source persistence
type SourceStorage interface {
	Create(ctx context.Context, source *models.Source) error
	Get(ctx context.Context, id string) (*models.Source, error)
	List(ctx context.Context) ([]*models.Source, error)
	Update(ctx context.Context, source *models.Source) error
	Delete(ctx context.Context, id string) error

	// Listing membership, kept consistent with the listings collection
	AddListing(ctx context.Context, sourceID, listingID string) error
	RemoveListing(ctx context.Context, sourceID, listingID string) error

	Count(ctx context.Context) (int64, error)
}

// ListingStorage - interface for listing page persistence
type ListingStorage interface {
	Create(ctx context.Context, listing *models.Listing) error
	Get(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	ListBySource(ctx context.Context, sourceID string) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id string) error

	// OldestPerSource returns, for each source, the active listing whose
	// last_listed is oldest (never-listed first).
	OldestPerSource(ctx context.Context) ([]*models.Listing, error)
	SetLastListed(ctx context.Context, id string, ts time.Time) error

	Count(ctx context.Context) (int64, error)
}

// ProductURLStorage - interface for discovered product URL persistence
type ProductURLStorage interface {
	Create(ctx context.Context, url *models.ProductURL) error
	Get(ctx context.Context, id string) (*models.ProductURL, error)
	GetByURL(ctx context.Context, url string) (*models.ProductURL, error)
	Update(ctx context.Context, url *models.ProductURL) error

	ListUnbatched(ctx context.Context) ([]*models.ProductURL, error)
	MarkBatched(ctx context.Context, id, batchID string) error

	Count(ctx context.Context) (int64, error)
}

// BatchStorage - interface for scrape batch persistence
type BatchStorage interface {
	Create(ctx context.Context, batch *models.Batch) error
	Get(ctx context.Context, id string) (*models.Batch, error)

	// FindOpenBatch returns the oldest batch with spare capacity, or nil.
	FindOpenBatch(ctx context.Context, maxSize int) (*models.Batch, error)
	AddURL(ctx context.Context, batchID, url string) error

	// OldestUnprocessed returns up to limit batches ordered by
	// last_processed ascending, never-processed first.
	OldestUnprocessed(ctx context.Context, limit int) ([]*models.Batch, error)
	SetLastProcessed(ctx context.Context, id string, ts time.Time) error

	Count(ctx context.Context) (int64, error)
}

// ProductStorage - interface for scraped product persistence
type ProductStorage interface {
	Upsert(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error

	// ApplyAdditive sets only the given fields on an existing product.
	ApplyAdditive(ctx context.Context, id string, fields map[string]interface{}) error

	Count(ctx context.Context) (int64, error)
}

// StatusStorage - interface for ingestion status tracking
type StatusStorage interface {
	Create(ctx context.Context, status *models.Status) error
	Get(ctx context.Context, id string) (*models.Status, error)
	Update(ctx context.Context, status *models.Status) error

	ListProcessing(ctx context.Context) ([]*models.Status, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
	CountByState(ctx context.Context) (map[string]int64, error)
}

// JobStorage - interface for agent-side scrape job persistence
type JobStorage interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	UpdateStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error
	ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error)

	// MarkStale fails jobs stuck in processing since before cutoff.
	MarkStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// JobResultStorage - interface for agent-side job result persistence
type JobResultStorage interface {
	Create(ctx context.Context, result *models.JobResult) error
	GetByJobID(ctx context.Context, jobID string) (*models.JobResult, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	SourceStorage() SourceStorage
	ListingStorage() ListingStorage
	ProductURLStorage() ProductURLStorage
	BatchStorage() BatchStorage
	ProductStorage() ProductStorage
	StatusStorage() StatusStorage
	JobStorage() JobStorage
	JobResultStorage() JobResultStorage
	Ping(ctx context.Context) error
	Close() error
}
