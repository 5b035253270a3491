package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingItem is one product URL discovered during a listing walk,
// tagged with the page it was found on (1-based).
type ListingItem struct {
	URL      string `json:"url" bson:"url"`
	PageRank int    `json:"page_rank" bson:"page_rank"`
}

// ListingPayload is the result body of a listing job.
type ListingPayload struct {
	Items     []ListingItem `json:"items" bson:"items"`
	PageIndex int           `json:"page_index" bson:"page_index"`
}

// JobResult is the terminal outcome of a scrape job. Exactly one of
// Listing or Product is set for successful jobs; failed jobs carry
// neither and record the error message instead.
type JobResult struct {
	ID           string          `json:"id" bson:"id"`
	JobID        string          `json:"job_id" bson:"job_id"`
	Status       JobStatus       `json:"status" bson:"status"`
	Listing      *ListingPayload `json:"listing,omitempty" bson:"listing,omitempty"`
	Product      *Product        `json:"product,omitempty" bson:"product,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
}

// NewListingJobResult wraps a completed listing walk.
func NewListingJobResult(jobID string, items []ListingItem, pageIndex int) *JobResult {
	if items == nil {
		items = []ListingItem{}
	}
	return &JobResult{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Status:    JobCompleted,
		Listing:   &ListingPayload{Items: items, PageIndex: pageIndex},
		CreatedAt: time.Now().UTC(),
	}
}

// NewProductJobResult wraps a completed product scrape.
func NewProductJobResult(jobID string, product *Product) *JobResult {
	return &JobResult{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Status:    JobCompleted,
		Product:   product,
		CreatedAt: time.Now().UTC(),
	}
}

// NewFailedJobResult records a task failure with its reason.
func NewFailedJobResult(jobID, errorMessage string) *JobResult {
	return &JobResult{
		ID:           uuid.New().String(),
		JobID:        jobID,
		Status:       JobFailed,
		ErrorMessage: errorMessage,
		CreatedAt:    time.Now().UTC(),
	}
}
