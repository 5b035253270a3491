package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/models"
)

// stubScraper counts Close calls so eviction behavior can be asserted.
type stubScraper struct {
	source     string
	closeCount int
}

func (s *stubScraper) Source() string                                  { return s.source }
func (s *stubScraper) PageContent(url string) (string, error)          { return "", nil }
func (s *stubScraper) Pagination(url string) (*Pagination, error)      { return &Pagination{}, nil }
func (s *stubScraper) ProductListings(url string, page int) ([]string, error) {
	return nil, nil
}
func (s *stubScraper) ProductDetails(url string) (*models.Product, error) {
	return nil, nil
}
func (s *stubScraper) Close() error {
	s.closeCount++
	return nil
}

func newTestCache(maxSize int) *Cache {
	return NewCache(maxSize, arbor.NewLogger())
}

func TestCache_GetOnEmptyReturnsNil(t *testing.T) {
	cache := newTestCache(5)

	assert.Nil(t, cache.Get("amazon"))
	assert.Equal(t, 0, cache.Len())
}

func TestCache_InsertThenGetReturnsSameInstance(t *testing.T) {
	cache := newTestCache(5)
	s := &stubScraper{source: "amazon"}

	cache.Insert("amazon", s)
	assert.Equal(t, 1, cache.Len())

	got := cache.Get("amazon")
	assert.Same(t, s, got)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_GetReturnsNewestForSource(t *testing.T) {
	cache := newTestCache(5)
	older := &stubScraper{source: "amazon"}
	newer := &stubScraper{source: "amazon"}

	cache.Insert("amazon", older)
	cache.Insert("amazon", newer)

	assert.Same(t, newer, cache.Get("amazon"))
	assert.Same(t, older, cache.Get("amazon"))
	assert.Nil(t, cache.Get("amazon"))
}

func TestCache_CheckedOutInstanceIsDetached(t *testing.T) {
	cache := newTestCache(1)
	s := &stubScraper{source: "amazon"}

	cache.Insert("amazon", s)
	got := cache.Get("amazon")
	require.Same(t, s, got)

	// Filling the cache after checkout must not close the checked-out
	// instance; it no longer lives in any chain.
	cache.Insert("myntra", &stubScraper{source: "myntra"})
	cache.Insert("bluorng", &stubScraper{source: "bluorng"})

	assert.Equal(t, 0, s.closeCount)
}

func TestCache_EvictsGloballyOldestExactlyOnce(t *testing.T) {
	cache := newTestCache(2)
	first := &stubScraper{source: "amazon"}
	second := &stubScraper{source: "myntra"}
	third := &stubScraper{source: "bluorng"}

	cache.Insert("amazon", first)
	cache.Insert("myntra", second)
	cache.Insert("bluorng", third)

	// The oldest insert across all sources goes, nothing else.
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, 1, first.closeCount)
	assert.Equal(t, 0, second.closeCount)
	assert.Equal(t, 0, third.closeCount)

	// The evicted source is gone; the survivors are intact.
	assert.Nil(t, cache.Get("amazon"))
	assert.Same(t, second, cache.Get("myntra"))
	assert.Same(t, third, cache.Get("bluorng"))
}

func TestCache_EvictionSkipsCheckedOutSources(t *testing.T) {
	cache := newTestCache(2)
	amazon := &stubScraper{source: "amazon"}
	myntra := &stubScraper{source: "myntra"}

	cache.Insert("amazon", amazon)
	cache.Insert("myntra", myntra)
	require.Same(t, amazon, cache.Get("amazon"))

	// Cache holds only myntra now; a third insert fits without eviction.
	cache.Insert("bluorng", &stubScraper{source: "bluorng"})
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, 0, amazon.closeCount)
	assert.Equal(t, 0, myntra.closeCount)
}

func TestCache_RemovingLastNodeDropsSourceKey(t *testing.T) {
	cache := newTestCache(5)
	cache.Insert("amazon", &stubScraper{source: "amazon"})

	require.NotNil(t, cache.Get("amazon"))

	// The per-source chain is gone along with its last node; a fresh
	// lookup must behave exactly like a never-seen source.
	assert.Nil(t, cache.Get("amazon"))
	assert.Equal(t, 0, cache.Len())

	// And the source comes back cleanly after a reinsert.
	again := &stubScraper{source: "amazon"}
	cache.Insert("amazon", again)
	assert.Same(t, again, cache.Get("amazon"))
}

func TestCache_FlushClosesEverything(t *testing.T) {
	cache := newTestCache(10)
	scrapers := []*stubScraper{
		{source: "amazon"},
		{source: "amazon"},
		{source: "myntra"},
		{source: "jaywalking"},
	}
	for _, s := range scrapers {
		cache.Insert(s.source, s)
	}

	cache.Flush()

	assert.Equal(t, 0, cache.Len())
	for _, s := range scrapers {
		assert.Equal(t, 1, s.closeCount)
	}
	assert.Nil(t, cache.Get("amazon"))
	assert.Nil(t, cache.Get("myntra"))
}

func TestCache_MixedTrafficKeepsCountConsistent(t *testing.T) {
	cache := newTestCache(3)

	cache.Insert("amazon", &stubScraper{source: "amazon"})
	cache.Insert("myntra", &stubScraper{source: "myntra"})
	require.NotNil(t, cache.Get("amazon"))
	cache.Insert("amazon", &stubScraper{source: "amazon"})
	cache.Insert("bluorng", &stubScraper{source: "bluorng"})
	cache.Insert("thesouledstore", &stubScraper{source: "thesouledstore"})

	// Five inserts minus one checkout minus one eviction.
	assert.Equal(t, 3, cache.Len())
}
