package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// StatusStorage implements ingestion status persistence on MongoDB
type StatusStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewStatusStorage creates a new StatusStorage
func NewStatusStorage(db *MongoDB, logger arbor.ILogger) interfaces.StatusStorage {
	return &StatusStorage{db: db, logger: logger}
}

func (s *StatusStorage) collection() *mongo.Collection {
	return s.db.Collection(statusesCollection)
}

// Create inserts a new status
func (s *StatusStorage) Create(ctx context.Context, status *models.Status) error {
	if _, err := s.collection().InsertOne(ctx, status); err != nil {
		return fmt.Errorf("failed to create status: %w", err)
	}
	s.logger.Debug().
		Str("status_id", status.ID).
		Str("job_id", status.JobID).
		Str("ingestion_type", string(status.IngestionType)).
		Msg("Status created")
	return nil
}

// Get retrieves a status by ID
func (s *StatusStorage) Get(ctx context.Context, id string) (*models.Status, error) {
	var status models.Status
	err := s.collection().FindOne(ctx, bson.M{"id": id}).Decode(&status)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("status not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &status, nil
}

// Update replaces an existing status
func (s *StatusStorage) Update(ctx context.Context, status *models.Status) error {
	result, err := s.collection().ReplaceOne(ctx, bson.M{"id": status.ID}, status)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("status not found: %s", status.ID)
	}
	return nil
}

// ListProcessing returns every status still awaiting reconciliation
func (s *StatusStorage) ListProcessing(ctx context.Context) ([]*models.Status, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"status": models.StatusProcessing})
	if err != nil {
		return nil, fmt.Errorf("failed to list processing statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var statuses []*models.Status
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode statuses: %w", err)
	}
	return statuses, nil
}

// MarkCompleted transitions a processing status to completed. Terminal
// statuses are left untouched so reconciliation stays idempotent.
func (s *StatusStorage) MarkCompleted(ctx context.Context, id string) error {
	return s.markTerminal(ctx, id, models.StatusCompleted)
}

// MarkFailed transitions a processing status to failed
func (s *StatusStorage) MarkFailed(ctx context.Context, id string) error {
	return s.markTerminal(ctx, id, models.StatusFailed)
}

func (s *StatusStorage) markTerminal(ctx context.Context, id, state string) error {
	result, err := s.collection().UpdateOne(ctx,
		bson.M{"id": id, "status": models.StatusProcessing},
		bson.M{"$set": bson.M{"status": state, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to mark status %s: %w", state, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("status not found or already terminal: %s", id)
	}
	return nil
}

// CountByState returns status counts keyed by state
func (s *StatusStorage) CountByState(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses by state: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		State string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}
