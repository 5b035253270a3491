package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch_SizeTracksURLs(t *testing.T) {
	batch := NewBatch([]string{"url-1", "url-2", "url-3"})

	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 3, batch.BatchSize)
	assert.Len(t, batch.URLs, 3)
	assert.Nil(t, batch.LastProcessed)
	require.NoError(t, batch.Validate())
}

func TestNewBatch_CopiesInput(t *testing.T) {
	ids := []string{"url-1", "url-2"}
	batch := NewBatch(ids)

	ids[0] = "mutated"
	assert.Equal(t, "url-1", batch.URLs[0])
}

func TestBatch_ValidateRejectsSizeMismatch(t *testing.T) {
	batch := NewBatch([]string{"url-1", "url-2"})
	batch.BatchSize = 5

	assert.Error(t, batch.Validate())
}

func TestBatch_AddURLKeepsSizeConsistent(t *testing.T) {
	batch := NewBatch([]string{"url-1"})

	batch.AddURL("url-2")
	batch.AddURL("url-3")

	assert.Equal(t, 3, batch.BatchSize)
	assert.Equal(t, len(batch.URLs), batch.BatchSize)
	require.NoError(t, batch.Validate())
}

func TestBatch_Capacity(t *testing.T) {
	batch := NewBatch([]string{"url-1", "url-2"})

	assert.True(t, batch.HasCapacity(5))
	assert.Equal(t, 3, batch.Remaining(5))

	batch.AddURL("url-3")
	batch.AddURL("url-4")
	batch.AddURL("url-5")

	assert.False(t, batch.HasCapacity(5))
	assert.Equal(t, 0, batch.Remaining(5))
	// A batch over the limit never reports negative capacity.
	assert.Equal(t, 0, batch.Remaining(3))
}

func TestNewProductURL_Unbatched(t *testing.T) {
	url := NewProductURL("https://www.amazon.in/dp/B0D25JKGJP", "source-1", "listing-1", 4)

	assert.NotEmpty(t, url.ID)
	assert.False(t, url.Batched)
	assert.Nil(t, url.BatchID)
	assert.Equal(t, 4, url.PageIndex)
	require.NoError(t, url.Validate())
}

func TestProductURL_BatchedAndBatchIDMoveTogether(t *testing.T) {
	url := NewProductURL("https://www.amazon.in/dp/B0D25JKGJP", "source-1", "listing-1", 1)

	// Batched without an id is invalid, and so is the reverse.
	url.Batched = true
	assert.Error(t, url.Validate())

	batchID := "batch-1"
	url.Batched = false
	url.BatchID = &batchID
	assert.Error(t, url.Validate())
}

func TestProductURL_AssignBatchIsPermanent(t *testing.T) {
	url := NewProductURL("https://www.myntra.com/12345", "source-1", "listing-1", 2)

	require.NoError(t, url.AssignBatch("batch-1"))
	assert.True(t, url.Batched)
	require.NotNil(t, url.BatchID)
	assert.Equal(t, "batch-1", *url.BatchID)
	require.NoError(t, url.Validate())

	err := url.AssignBatch("batch-2")
	assert.Error(t, err)
	assert.Equal(t, "batch-1", *url.BatchID)
}
