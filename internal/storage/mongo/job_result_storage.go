package mongo

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// JobResultStorage implements agent-side job result persistence on MongoDB
type JobResultStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewJobResultStorage creates a new JobResultStorage
func NewJobResultStorage(db *MongoDB, logger arbor.ILogger) interfaces.JobResultStorage {
	return &JobResultStorage{db: db, logger: logger}
}

func (s *JobResultStorage) collection() *mongo.Collection {
	return s.db.Collection(jobResultsCollection)
}

// Create inserts a job result
func (s *JobResultStorage) Create(ctx context.Context, result *models.JobResult) error {
	if _, err := s.collection().InsertOne(ctx, result); err != nil {
		return fmt.Errorf("failed to create job result: %w", err)
	}
	s.logger.Debug().
		Str("job_id", result.JobID).
		Str("status", string(result.Status)).
		Msg("Job result created")
	return nil
}

// GetByJobID retrieves the result written for a job
func (s *JobResultStorage) GetByJobID(ctx context.Context, jobID string) (*models.JobResult, error) {
	var result models.JobResult
	err := s.collection().FindOne(ctx, bson.M{"job_id": jobID}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("job result not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job result: %w", err)
	}
	return &result, nil
}
