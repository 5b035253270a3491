package interfaces

import (
	"context"

	"github.com/ternarybob/vestio/internal/models"
)

// ScrapeTask is the envelope pushed onto the priority queue for workers.
type ScrapeTask struct {
	JobID      string         `json:"job_id"`
	WebpageURL string         `json:"webpage_url"`
	TypePage   models.JobType `json:"type_page"`
}

// JobQueue - priority queue between the scrape API and the worker pool
type JobQueue interface {
	// Enqueue pushes a task onto the list for the given priority.
	Enqueue(ctx context.Context, task *ScrapeTask, priority models.JobPriority) error

	// Dequeue blocks across all priorities (highest first) until a task
	// arrives or the poll timeout elapses; returns nil on idle timeout.
	Dequeue(ctx context.Context) (*ScrapeTask, error)

	Ping(ctx context.Context) error
	Close() error
}
