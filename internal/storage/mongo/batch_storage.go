package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// BatchStorage implements batch persistence on MongoDB
type BatchStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewBatchStorage creates a new BatchStorage
func NewBatchStorage(db *MongoDB, logger arbor.ILogger) interfaces.BatchStorage {
	return &BatchStorage{db: db, logger: logger}
}

func (s *BatchStorage) collection() *mongo.Collection {
	return s.db.Collection(batchesCollection)
}

// Create inserts a new batch
func (s *BatchStorage) Create(ctx context.Context, batch *models.Batch) error {
	if _, err := s.collection().InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	s.logger.Debug().Str("batch_id", batch.ID).Int("batch_size", batch.BatchSize).Msg("Batch created")
	return nil
}

// Get retrieves a batch by ID
func (s *BatchStorage) Get(ctx context.Context, id string) (*models.Batch, error) {
	var batch models.Batch
	err := s.collection().FindOne(ctx, bson.M{"id": id}).Decode(&batch)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("batch not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &batch, nil
}

// FindOpenBatch returns the oldest batch still below maxSize, or nil when
// every batch is full.
func (s *BatchStorage) FindOpenBatch(ctx context.Context, maxSize int) (*models.Batch, error) {
	var batch models.Batch
	err := s.collection().FindOne(ctx,
		bson.M{"batch_size": bson.M{"$lt": maxSize}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&batch)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open batch: %w", err)
	}
	return &batch, nil
}

// AddURL appends a product URL ID to the batch and bumps batch_size
func (s *BatchStorage) AddURL(ctx context.Context, batchID, urlID string) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": batchID}, bson.M{
		"$addToSet": bson.M{"urls": urlID},
		"$inc":      bson.M{"batch_size": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to add url to batch: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("batch not found: %s", batchID)
	}
	return nil
}

// OldestUnprocessed returns up to limit batches ordered by last_processed
// ascending. Never-processed batches sort first, so fresh batches are
// dispatched before any batch gets a second pass.
func (s *BatchStorage) OldestUnprocessed(ctx context.Context, limit int) ([]*models.Batch, error) {
	cursor, err := s.collection().Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "last_processed", Value: 1}}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to list oldest batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []*models.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}
	return batches, nil
}

// SetLastProcessed records when a batch was last dispatched
func (s *BatchStorage) SetLastProcessed(ctx context.Context, id string, ts time.Time) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"last_processed": ts},
	})
	if err != nil {
		return fmt.Errorf("failed to set last_processed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("batch not found: %s", id)
	}
	return nil
}

// Count returns the number of batches
func (s *BatchStorage) Count(ctx context.Context) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count batches: %w", err)
	}
	return count, nil
}
