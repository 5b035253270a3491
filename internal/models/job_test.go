package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob("https://www.amazon.in/s?k=tshirt", PriorityLow, JobTypeListing)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobQueued, job.Status)
	assert.Equal(t, PriorityLow, job.Priority)
	assert.Equal(t, JobTypeListing, job.TypePage)
	assert.Nil(t, job.CompletedAt)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestJob_LifecycleTransitions(t *testing.T) {
	job := NewJob("https://www.myntra.com/tshirts", PriorityHigh, JobTypeProduct)

	require.NoError(t, job.MarkProcessing())
	assert.Equal(t, JobProcessing, job.Status)
	assert.Nil(t, job.CompletedAt)

	require.NoError(t, job.MarkCompleted())
	assert.Equal(t, JobCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestJob_TerminalStatesAreFinal(t *testing.T) {
	job := NewJob("https://www.myntra.com/tshirts", PriorityHigh, JobTypeProduct)
	require.NoError(t, job.MarkCompleted())

	completedAt := *job.CompletedAt

	// No transition may leave a terminal state.
	assert.Error(t, job.MarkProcessing())
	assert.Error(t, job.MarkCompleted())
	assert.Error(t, job.MarkFailed("late failure"))

	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, completedAt, *job.CompletedAt)
	assert.Empty(t, job.ErrorMessage)
}

func TestJob_MarkFailedRecordsReason(t *testing.T) {
	job := NewJob("https://www.bluorng.com/products/hoodie", PriorityMedium, JobTypeProduct)

	require.NoError(t, job.MarkFailed("page load timed out"))
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, "page load timed out", job.ErrorMessage)
	require.NotNil(t, job.CompletedAt)

	// Failed is just as final as completed.
	assert.Error(t, job.MarkCompleted())
	assert.Equal(t, JobFailed, job.Status)
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.False(t, JobQueued.IsTerminal())
	assert.False(t, JobProcessing.IsTerminal())
	assert.True(t, JobCompleted.IsTerminal())
	assert.True(t, JobFailed.IsTerminal())
}

func TestNewStatus_Defaults(t *testing.T) {
	status := NewStatus(IngestionTypeListing, "job-1", "listing-1")

	assert.NotEmpty(t, status.ID)
	assert.Equal(t, StatusProcessing, status.Status)
	assert.Equal(t, "job-1", status.JobID)
	assert.Equal(t, "listing-1", status.EntityID)
	assert.False(t, status.IsTerminal())
	require.NoError(t, status.Validate())
}

func TestStatus_TerminalStatesAreFinal(t *testing.T) {
	status := NewStatus(IngestionTypeProduct, "job-2", "url-2")

	require.NoError(t, status.MarkCompleted())
	assert.True(t, status.IsTerminal())

	// Terminal statuses stay closed; reconciliation must never reopen them.
	assert.Error(t, status.MarkCompleted())
	assert.Error(t, status.MarkFailed())
	assert.Equal(t, StatusCompleted, status.Status)
}

func TestStatus_ValidateRejectsBadStates(t *testing.T) {
	status := NewStatus(IngestionTypeListing, "job-3", "listing-3")

	status.Status = "pending"
	assert.Error(t, status.Validate())

	status.Status = StatusProcessing
	status.IngestionType = "image"
	assert.Error(t, status.Validate())
}
