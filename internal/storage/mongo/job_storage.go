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

// JobStorage implements agent-side scrape job persistence on MongoDB
type JobStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage
func NewJobStorage(db *MongoDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{db: db, logger: logger}
}

func (s *JobStorage) collection() *mongo.Collection {
	return s.db.Collection(jobsCollection)
}

// Create inserts a new job
func (s *JobStorage) Create(ctx context.Context, job *models.Job) error {
	if _, err := s.collection().InsertOne(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	s.logger.Debug().
		Str("job_id", job.ID).
		Str("type_page", string(job.TypePage)).
		Str("priority", string(job.Priority)).
		Msg("Job created")
	return nil
}

// Get retrieves a job by its job_id
func (s *JobStorage) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.collection().FindOne(ctx, bson.M{"job_id": id}).Decode(&job)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// UpdateStatus transitions a job's status. Terminal transitions stamp
// completed_at; a terminal job is never transitioned again.
func (s *JobStorage) UpdateStatus(ctx context.Context, id string, status models.JobStatus, errorMessage string) error {
	set := bson.M{"status": status}
	if errorMessage != "" {
		set["error_message"] = errorMessage
	}
	if status.IsTerminal() {
		set["completed_at"] = time.Now().UTC()
	}

	result, err := s.collection().UpdateOne(ctx,
		bson.M{
			"job_id": id,
			"status": bson.M{"$nin": []models.JobStatus{models.JobCompleted, models.JobFailed}},
		},
		bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("job not found or already terminal: %s", id)
	}
	return nil
}

// ListByStatus returns jobs in the given state
func (s *JobStorage) ListByStatus(ctx context.Context, status models.JobStatus) ([]*models.Job, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer cursor.Close(ctx)

	var jobs []*models.Job
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return jobs, nil
}

// MarkStale fails every job stuck in processing since before cutoff and
// returns how many were failed.
func (s *JobStorage) MarkStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	result, err := s.collection().UpdateMany(ctx,
		bson.M{
			"status":     models.JobProcessing,
			"created_at": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{
			"status":        models.JobFailed,
			"error_message": reason,
			"completed_at":  time.Now().UTC(),
		}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale jobs: %w", err)
	}
	return result.ModifiedCount, nil
}
