package interfaces

import (
	"context"

	"github.com/ternarybob/vestio/internal/models"
)

// AgentClient - the ingestor's view of the scraping agent HTTP API
type AgentClient interface {
	// SubmitScrape posts a scrape request and returns the accepted job id.
	SubmitScrape(ctx context.Context, url string, priority models.JobPriority, typePage models.JobType) (string, error)

	// JobStatus fetches the current job record.
	JobStatus(ctx context.Context, jobID string) (*models.Job, error)

	// JobResult fetches the terminal result for a job.
	JobResult(ctx context.Context, jobID string) (*models.JobResult, error)
}
