package ingest

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// memStore is an in-memory StorageManager. Collections keep insertion
// order so dispatch and chunking assertions are deterministic.
type memStore struct {
	sources  *memSourceStorage
	listings *memListingStorage
	urls     *memProductURLStorage
	batches  *memBatchStorage
	products *memProductStorage
	statuses *memStatusStorage
}

func newMemStore() *memStore {
	return &memStore{
		sources:  &memSourceStorage{},
		listings: &memListingStorage{},
		urls:     &memProductURLStorage{},
		batches:  &memBatchStorage{},
		products: &memProductStorage{},
		statuses: &memStatusStorage{},
	}
}

func (m *memStore) SourceStorage() interfaces.SourceStorage         { return m.sources }
func (m *memStore) ListingStorage() interfaces.ListingStorage       { return m.listings }
func (m *memStore) ProductURLStorage() interfaces.ProductURLStorage { return m.urls }
func (m *memStore) BatchStorage() interfaces.BatchStorage           { return m.batches }
func (m *memStore) ProductStorage() interfaces.ProductStorage       { return m.products }
func (m *memStore) StatusStorage() interfaces.StatusStorage         { return m.statuses }
func (m *memStore) JobStorage() interfaces.JobStorage               { return nil }
func (m *memStore) JobResultStorage() interfaces.JobResultStorage   { return nil }
func (m *memStore) Ping(ctx context.Context) error                  { return nil }
func (m *memStore) Close() error                                    { return nil }

type memSourceStorage struct {
	items []*models.Source
}

func (s *memSourceStorage) Create(ctx context.Context, source *models.Source) error {
	s.items = append(s.items, source)
	return nil
}
func (s *memSourceStorage) Get(ctx context.Context, id string) (*models.Source, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("not found: %s", id)
}
func (s *memSourceStorage) List(ctx context.Context) ([]*models.Source, error) {
	return s.items, nil
}
func (s *memSourceStorage) Update(ctx context.Context, source *models.Source) error { return nil }
func (s *memSourceStorage) Delete(ctx context.Context, id string) error             { return nil }
func (s *memSourceStorage) AddListing(ctx context.Context, sourceID, listingID string) error {
	return nil
}
func (s *memSourceStorage) RemoveListing(ctx context.Context, sourceID, listingID string) error {
	return nil
}
func (s *memSourceStorage) Count(ctx context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

type memListingStorage struct {
	items []*models.Listing
}

func (s *memListingStorage) Create(ctx context.Context, listing *models.Listing) error {
	s.items = append(s.items, listing)
	return nil
}
func (s *memListingStorage) Get(ctx context.Context, id string) (*models.Listing, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("not found: %s", id)
}
func (s *memListingStorage) List(ctx context.Context) ([]*models.Listing, error) {
	return s.items, nil
}
func (s *memListingStorage) ListBySource(ctx context.Context, sourceID string) ([]*models.Listing, error) {
	var out []*models.Listing
	for _, item := range s.items {
		if item.SourceID == sourceID {
			out = append(out, item)
		}
	}
	return out, nil
}
func (s *memListingStorage) Update(ctx context.Context, listing *models.Listing) error { return nil }
func (s *memListingStorage) Delete(ctx context.Context, id string) error               { return nil }

func (s *memListingStorage) OldestPerSource(ctx context.Context) ([]*models.Listing, error) {
	best := make(map[string]*models.Listing)
	for _, item := range s.items {
		if !item.Active {
			continue
		}
		current, ok := best[item.SourceID]
		if !ok {
			best[item.SourceID] = item
			continue
		}
		// Never-listed beats any timestamp; otherwise oldest wins.
		switch {
		case current.LastListed == nil:
		case item.LastListed == nil:
			best[item.SourceID] = item
		case item.LastListed.Before(*current.LastListed):
			best[item.SourceID] = item
		}
	}

	out := make([]*models.Listing, 0, len(best))
	for _, item := range best {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}

func (s *memListingStorage) SetLastListed(ctx context.Context, id string, ts time.Time) error {
	for _, item := range s.items {
		if item.ID == id {
			item.MarkListed(ts)
			return nil
		}
	}
	return fmt.Errorf("not found: %s", id)
}
func (s *memListingStorage) Count(ctx context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

type memProductURLStorage struct {
	items []*models.ProductURL
}

func (s *memProductURLStorage) Create(ctx context.Context, url *models.ProductURL) error {
	s.items = append(s.items, url)
	return nil
}
func (s *memProductURLStorage) Get(ctx context.Context, id string) (*models.ProductURL, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}
func (s *memProductURLStorage) GetByURL(ctx context.Context, url string) (*models.ProductURL, error) {
	for _, item := range s.items {
		if item.URL == url {
			return item, nil
		}
	}
	return nil, nil
}
func (s *memProductURLStorage) Update(ctx context.Context, url *models.ProductURL) error { return nil }

func (s *memProductURLStorage) ListUnbatched(ctx context.Context) ([]*models.ProductURL, error) {
	var out []*models.ProductURL
	for _, item := range s.items {
		if !item.Batched {
			out = append(out, item)
		}
	}
	return out, nil
}
func (s *memProductURLStorage) MarkBatched(ctx context.Context, id, batchID string) error {
	for _, item := range s.items {
		if item.ID == id {
			return item.AssignBatch(batchID)
		}
	}
	return fmt.Errorf("not found: %s", id)
}
func (s *memProductURLStorage) Count(ctx context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

type memBatchStorage struct {
	items []*models.Batch
}

func (s *memBatchStorage) Create(ctx context.Context, batch *models.Batch) error {
	s.items = append(s.items, batch)
	return nil
}
func (s *memBatchStorage) Get(ctx context.Context, id string) (*models.Batch, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("not found: %s", id)
}
func (s *memBatchStorage) FindOpenBatch(ctx context.Context, maxSize int) (*models.Batch, error) {
	for _, item := range s.items {
		if item.HasCapacity(maxSize) {
			return item, nil
		}
	}
	return nil, nil
}
func (s *memBatchStorage) AddURL(ctx context.Context, batchID, url string) error {
	for _, item := range s.items {
		if item.ID == batchID {
			item.AddURL(url)
			return nil
		}
	}
	return fmt.Errorf("not found: %s", batchID)
}
func (s *memBatchStorage) OldestUnprocessed(ctx context.Context, limit int) ([]*models.Batch, error) {
	sorted := make([]*models.Batch, len(s.items))
	copy(sorted, s.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].LastProcessed, sorted[j].LastProcessed
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}
func (s *memBatchStorage) SetLastProcessed(ctx context.Context, id string, ts time.Time) error {
	for _, item := range s.items {
		if item.ID == id {
			item.LastProcessed = &ts
			return nil
		}
	}
	return fmt.Errorf("not found: %s", id)
}
func (s *memBatchStorage) Count(ctx context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

type memProductStorage struct {
	items         []*models.Product
	additiveCalls []map[string]interface{}
}

func (s *memProductStorage) Upsert(ctx context.Context, product *models.Product) error {
	for i, item := range s.items {
		if item.ID == product.ID {
			s.items[i] = product
			return nil
		}
	}
	s.items = append(s.items, product)
	return nil
}
func (s *memProductStorage) Get(ctx context.Context, id string) (*models.Product, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, nil
}
func (s *memProductStorage) Update(ctx context.Context, product *models.Product) error { return nil }
func (s *memProductStorage) ApplyAdditive(ctx context.Context, id string, fields map[string]interface{}) error {
	s.additiveCalls = append(s.additiveCalls, fields)
	return nil
}
func (s *memProductStorage) Count(ctx context.Context) (int64, error) {
	return int64(len(s.items)), nil
}

type memStatusStorage struct {
	items []*models.Status
}

func (s *memStatusStorage) Create(ctx context.Context, status *models.Status) error {
	s.items = append(s.items, status)
	return nil
}
func (s *memStatusStorage) Get(ctx context.Context, id string) (*models.Status, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("not found: %s", id)
}
func (s *memStatusStorage) Update(ctx context.Context, status *models.Status) error { return nil }

func (s *memStatusStorage) ListProcessing(ctx context.Context) ([]*models.Status, error) {
	var out []*models.Status
	for _, item := range s.items {
		if item.Status == models.StatusProcessing {
			out = append(out, item)
		}
	}
	return out, nil
}
func (s *memStatusStorage) MarkCompleted(ctx context.Context, id string) error {
	for _, item := range s.items {
		if item.ID == id {
			return item.MarkCompleted()
		}
	}
	return fmt.Errorf("not found: %s", id)
}
func (s *memStatusStorage) MarkFailed(ctx context.Context, id string) error {
	for _, item := range s.items {
		if item.ID == id {
			return item.MarkFailed()
		}
	}
	return fmt.Errorf("not found: %s", id)
}
func (s *memStatusStorage) CountByState(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, item := range s.items {
		out[item.Status]++
	}
	return out, nil
}

// submittedJob records one SubmitScrape call on the fake agent.
type submittedJob struct {
	JobID    string
	URL      string
	Priority models.JobPriority
	TypePage models.JobType
}

// fakeAgent scripts the agent API without HTTP.
type fakeAgent struct {
	submitErr error
	submitted []submittedJob
	jobs      map[string]*models.Job
	results   map[string]*models.JobResult
	statusErr map[string]error
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		jobs:      make(map[string]*models.Job),
		results:   make(map[string]*models.JobResult),
		statusErr: make(map[string]error),
	}
}

func (a *fakeAgent) SubmitScrape(ctx context.Context, url string, priority models.JobPriority, typePage models.JobType) (string, error) {
	if a.submitErr != nil {
		return "", a.submitErr
	}
	jobID := fmt.Sprintf("job-%d", len(a.submitted)+1)
	a.submitted = append(a.submitted, submittedJob{JobID: jobID, URL: url, Priority: priority, TypePage: typePage})
	return jobID, nil
}

func (a *fakeAgent) JobStatus(ctx context.Context, jobID string) (*models.Job, error) {
	if err, ok := a.statusErr[jobID]; ok {
		return nil, err
	}
	job, ok := a.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("not found: %s", jobID)
	}
	return job, nil
}

func (a *fakeAgent) JobResult(ctx context.Context, jobID string) (*models.JobResult, error) {
	result, ok := a.results[jobID]
	if !ok {
		return nil, fmt.Errorf("not found: %s", jobID)
	}
	return result, nil
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

func newTestService(store *memStore, agent *fakeAgent) *Service {
	cfg := &common.Config{
		Ingest: common.IngestConfig{MaxBatchSize: 100, MaxBatchesToProcess: 5},
	}
	return NewService(store, agent, cfg, testLogger())
}

func TestRunListingScrape_DispatchesOldestPerSource(t *testing.T) {
	store := newMemStore()
	agent := newFakeAgent()
	svc := newTestService(store, agent)
	ctx := context.Background()

	recent := time.Now().UTC().Add(-1 * time.Hour)
	stale := time.Now().UTC().Add(-48 * time.Hour)

	// Source A: one fresh listing, one stale one. Source B: never listed.
	fresh := models.NewListing("source-a", "https://www.amazon.in/s?k=shirts", true)
	fresh.LastListed = &recent
	old := models.NewListing("source-a", "https://www.amazon.in/s?k=jeans", true)
	old.LastListed = &stale
	never := models.NewListing("source-b", "https://www.myntra.com/tshirts", true)

	for _, l := range []*models.Listing{fresh, old, never} {
		require.NoError(t, store.listings.Create(ctx, l))
	}

	require.NoError(t, svc.RunListingScrape(ctx))

	// One dispatch per source: the stale listing for A, the virgin one for B.
	require.Len(t, agent.submitted, 2)
	urls := []string{agent.submitted[0].URL, agent.submitted[1].URL}
	assert.Contains(t, urls, old.URL)
	assert.Contains(t, urls, never.URL)

	for _, sub := range agent.submitted {
		assert.Equal(t, models.PriorityLow, sub.Priority)
		assert.Equal(t, models.JobTypeListing, sub.TypePage)
	}

	// Each dispatch opened a processing status bound to its listing.
	require.Len(t, store.statuses.items, 2)
	for _, status := range store.statuses.items {
		assert.Equal(t, models.IngestionTypeListing, status.IngestionType)
		assert.Equal(t, models.StatusProcessing, status.Status)
		assert.Contains(t, []string{old.ID, never.ID}, status.EntityID)
	}
}

func TestRunListingScrape_InactiveListingsAreSkipped(t *testing.T) {
	store := newMemStore()
	agent := newFakeAgent()
	svc := newTestService(store, agent)
	ctx := context.Background()

	inactive := models.NewListing("source-a", "https://www.amazon.in/s?k=old", false)
	require.NoError(t, store.listings.Create(ctx, inactive))

	require.NoError(t, svc.RunListingScrape(ctx))

	assert.Empty(t, agent.submitted)
	assert.Empty(t, store.statuses.items)
}

func TestRunListingScrape_SubmitFailureLeavesListingEligible(t *testing.T) {
	store := newMemStore()
	agent := newFakeAgent()
	agent.submitErr = fmt.Errorf("agent unreachable")
	svc := newTestService(store, agent)
	ctx := context.Background()

	listing := models.NewListing("source-a", "https://www.amazon.in/s?k=shirts", true)
	require.NoError(t, store.listings.Create(ctx, listing))

	// A failed dispatch is not a task failure; the listing just waits for
	// the next cycle.
	require.NoError(t, svc.RunListingScrape(ctx))
	assert.Empty(t, store.statuses.items)
	assert.Nil(t, listing.LastListed)
}
