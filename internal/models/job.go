package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobPriority selects the queue a scrape job is dispatched to.
type JobPriority string

const (
	PriorityHigh   JobPriority = "high"
	PriorityMedium JobPriority = "medium"
	PriorityLow    JobPriority = "low"
)

// JobType distinguishes listing walks from single-product scrapes.
type JobType string

const (
	JobTypeListing JobType = "listing"
	JobTypeProduct JobType = "product"
)

// JobStatus is the lifecycle state of a scrape job.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// IsTerminal returns true for completed/failed.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is one scrape request accepted by the agent. It is persisted on
// submission and updated as a worker picks it up and finishes it.
type Job struct {
	ID           string      `json:"job_id" bson:"job_id"`
	WebpageURL   string      `json:"webpage_url" bson:"webpage_url"`
	Priority     JobPriority `json:"priority" bson:"priority"`
	TypePage     JobType     `json:"type_page" bson:"type_page"`
	Status       JobStatus   `json:"status" bson:"status"`
	ErrorMessage string      `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// NewJob creates a queued job with a fresh UUID.
func NewJob(webpageURL string, priority JobPriority, typePage JobType) *Job {
	return &Job{
		ID:         uuid.New().String(),
		WebpageURL: webpageURL,
		Priority:   priority,
		TypePage:   typePage,
		Status:     JobQueued,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkProcessing transitions queued → processing.
func (j *Job) MarkProcessing() error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s is already %s", j.ID, j.Status)
	}
	j.Status = JobProcessing
	return nil
}

// MarkCompleted transitions to the terminal completed state.
func (j *Job) MarkCompleted() error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s is already %s", j.ID, j.Status)
	}
	now := time.Now().UTC()
	j.Status = JobCompleted
	j.CompletedAt = &now
	return nil
}

// MarkFailed transitions to the terminal failed state with a reason.
func (j *Job) MarkFailed(reason string) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s is already %s", j.ID, j.Status)
	}
	now := time.Now().UTC()
	j.Status = JobFailed
	j.ErrorMessage = reason
	j.CompletedAt = &now
	return nil
}
