package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes both binaries rely on. Index creation
// is idempotent; rerunning on startup is safe.
func (m *Manager) ensureIndexes(ctx context.Context) error {
	// Every collection is keyed by its own "id" field, not Mongo's _id.
	uniqueID := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, name := range []string{
		sourcesCollection,
		listingsCollection,
		productURLsCollection,
		batchesCollection,
		productsCollection,
		statusesCollection,
	} {
		if _, err := m.db.Collection(name).Indexes().CreateOne(ctx, uniqueID); err != nil {
			return fmt.Errorf("failed to create id index on %s: %w", name, err)
		}
	}

	// Discovered URLs are globally unique; rediscovery is skipped.
	if _, err := m.db.Collection(productURLsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create url index on %s: %w", productURLsCollection, err)
	}

	// Agent-side collections are looked up by job_id.
	for _, name := range []string{jobsCollection, jobResultsCollection} {
		if _, err := m.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "job_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}); err != nil {
			return fmt.Errorf("failed to create job_id index on %s: %w", name, err)
		}
	}

	// Reconciliation scans processing statuses; the reaper scans processing jobs.
	if _, err := m.db.Collection(statusesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create status index on %s: %w", statusesCollection, err)
	}
	if _, err := m.db.Collection(jobsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create status index on %s: %w", jobsCollection, err)
	}

	return nil
}
