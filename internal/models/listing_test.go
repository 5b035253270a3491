package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListing_Defaults(t *testing.T) {
	listing := NewListing("source-1", "https://www.myntra.com/tshirts", true)

	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, "source-1", listing.SourceID)
	assert.True(t, listing.Active)
	assert.Nil(t, listing.LastListed, "never-scraped listings sort first")
	require.NoError(t, listing.Validate())
}

func TestListing_ValidateRequiresFields(t *testing.T) {
	listing := NewListing("source-1", "https://www.myntra.com/tshirts", true)

	listing.URL = "   "
	assert.Error(t, listing.Validate())

	listing.URL = "https://www.myntra.com/tshirts"
	listing.SourceID = ""
	assert.Error(t, listing.Validate())
}

func TestListing_MarkListedOnlyMovesForward(t *testing.T) {
	listing := NewListing("source-1", "https://www.bluorng.com/collections/all", true)

	first := time.Date(2026, 8, 20, 6, 0, 0, 0, time.UTC)
	listing.MarkListed(first)
	require.NotNil(t, listing.LastListed)
	assert.Equal(t, first, *listing.LastListed)

	// Late-arriving reconciliation for an older job must not rewind it
	earlier := first.Add(-2 * time.Hour)
	listing.MarkListed(earlier)
	assert.Equal(t, first, *listing.LastListed)

	later := first.Add(12 * time.Hour)
	listing.MarkListed(later)
	assert.Equal(t, later, *listing.LastListed)
}
