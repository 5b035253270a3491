package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IngestionType identifies what kind of agent job a Status tracks
type IngestionType string

const (
	IngestionTypeListing IngestionType = "listing"
	IngestionTypeProduct IngestionType = "product"
)

// Status states
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Status ties an ingestor entity to an outstanding agent job. One is
// created per dispatch; terminal rows are never reopened and remain as an
// audit trail, so re-running reconciliation over them is a no-op.
type Status struct {
	ID            string        `json:"id" bson:"id"`
	IngestionType IngestionType `json:"ingestion_type" bson:"ingestion_type"`
	JobID         string        `json:"job_id" bson:"job_id"`
	EntityID      string        `json:"entity_id" bson:"entity_id"` // Listing.ID or ProductURL.ID depending on type
	Status        string        `json:"status" bson:"status"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// NewStatus creates a processing status for a freshly dispatched agent job.
func NewStatus(ingestionType IngestionType, jobID, entityID string) *Status {
	now := time.Now().UTC()
	return &Status{
		ID:            uuid.New().String(),
		IngestionType: ingestionType,
		JobID:         jobID,
		EntityID:      entityID,
		Status:        StatusProcessing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate validates the status fields
func (s *Status) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("status ID is required")
	}
	if s.IngestionType != IngestionTypeListing && s.IngestionType != IngestionTypeProduct {
		return fmt.Errorf("invalid ingestion_type %q", s.IngestionType)
	}
	if s.JobID == "" {
		return fmt.Errorf("status job_id is required")
	}
	if s.EntityID == "" {
		return fmt.Errorf("status entity_id is required")
	}
	switch s.Status {
	case StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("invalid status %q", s.Status)
	}
	return nil
}

// IsTerminal reports whether the status has reached a final state.
func (s *Status) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// MarkCompleted transitions the status to completed. Terminal states are
// monotonic; completing an already-terminal status is an error.
func (s *Status) MarkCompleted() error {
	if s.IsTerminal() {
		return fmt.Errorf("status %s already terminal (%s)", s.ID, s.Status)
	}
	s.Status = StatusCompleted
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed transitions the status to failed.
func (s *Status) MarkFailed() error {
	if s.IsTerminal() {
		return fmt.Errorf("status %s already terminal (%s)", s.ID, s.Status)
	}
	s.Status = StatusFailed
	s.UpdatedAt = time.Now().UTC()
	return nil
}
