package mongo

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
)

// Collection names used by both binaries.
const (
	sourcesCollection     = "sources"
	listingsCollection    = "listings"
	productURLsCollection = "product_urls"
	batchesCollection     = "batches"
	productsCollection    = "products"
	statusesCollection    = "statuses"
	jobsCollection        = "jobs"
	jobResultsCollection  = "job_results"
)

// Manager implements the StorageManager interface for MongoDB
type Manager struct {
	db         *MongoDB
	source     interfaces.SourceStorage
	listing    interfaces.ListingStorage
	productURL interfaces.ProductURLStorage
	batch      interfaces.BatchStorage
	product    interfaces.ProductStorage
	status     interfaces.StatusStorage
	job        interfaces.JobStorage
	jobResult  interfaces.JobResultStorage
	logger     arbor.ILogger
}

// NewManager connects to MongoDB and constructs one storage per entity
func NewManager(ctx context.Context, logger arbor.ILogger, config *common.MongoConfig) (interfaces.StorageManager, error) {
	db, err := NewMongoDB(ctx, logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:         db,
		source:     NewSourceStorage(db, logger),
		listing:    NewListingStorage(db, logger),
		productURL: NewProductURLStorage(db, logger),
		batch:      NewBatchStorage(db, logger),
		product:    NewProductStorage(db, logger),
		status:     NewStatusStorage(db, logger),
		job:        NewJobStorage(db, logger),
		jobResult:  NewJobResultStorage(db, logger),
		logger:     logger,
	}

	if err := manager.ensureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure indexes")
	}

	logger.Info().Str("database", config.Database).Msg("Mongo storage manager initialized")

	return manager, nil
}

// SourceStorage returns the Source storage interface
func (m *Manager) SourceStorage() interfaces.SourceStorage {
	return m.source
}

// ListingStorage returns the Listing storage interface
func (m *Manager) ListingStorage() interfaces.ListingStorage {
	return m.listing
}

// ProductURLStorage returns the ProductURL storage interface
func (m *Manager) ProductURLStorage() interfaces.ProductURLStorage {
	return m.productURL
}

// BatchStorage returns the Batch storage interface
func (m *Manager) BatchStorage() interfaces.BatchStorage {
	return m.batch
}

// ProductStorage returns the Product storage interface
func (m *Manager) ProductStorage() interfaces.ProductStorage {
	return m.product
}

// StatusStorage returns the Status storage interface
func (m *Manager) StatusStorage() interfaces.StatusStorage {
	return m.status
}

// JobStorage returns the Job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// JobResultStorage returns the JobResult storage interface
func (m *Manager) JobResultStorage() interfaces.JobResultStorage {
	return m.jobResult
}

// Ping verifies the database connection
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.Ping(ctx)
}

// Close disconnects from the database
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
