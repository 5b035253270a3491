package agentclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (interfaces.AgentClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(&common.AgentConfig{
		APIURL: srv.URL,
		Token:  "test-token",
	}, arbor.NewLogger())
	return client, srv
}

func TestSubmitScrape_PostsRequestAndReturnsJobID(t *testing.T) {
	var seen models.ScrapeRequest
	var seenAuth, seenPath, seenMethod string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenMethod = r.Method
		seenPath = r.URL.Path
		seenAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		json.NewEncoder(w).Encode(models.ScrapeResponse{JobID: "job-42"})
	}))

	jobID, err := client.SubmitScrape(context.Background(), "https://www.myntra.com/tshirts", models.PriorityLow, models.JobTypeListing)
	require.NoError(t, err)
	assert.Equal(t, "job-42", jobID)

	assert.Equal(t, http.MethodPost, seenMethod)
	assert.Equal(t, "/api/scrape", seenPath)
	assert.Equal(t, "Bearer test-token", seenAuth)
	assert.Equal(t, "https://www.myntra.com/tshirts", seen.WebpageURL)
	assert.Equal(t, "low", seen.Priority)
	assert.Equal(t, "listing", seen.TypePage)
}

func TestSubmitScrape_MissingJobIDIsAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ScrapeResponse{})
	}))

	_, err := client.SubmitScrape(context.Background(), "https://www.myntra.com/tshirts", models.PriorityHigh, models.JobTypeProduct)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no job id")
}

func TestSubmitScrape_NonOKStatusBecomesAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid token", http.StatusForbidden)
	}))

	_, err := client.SubmitScrape(context.Background(), "https://www.myntra.com/tshirts", models.PriorityLow, models.JobTypeListing)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Invalid token", apiErr.Message)
	assert.Equal(t, "/api/scrape", apiErr.Endpoint)
}

func TestJobStatus_FetchesJobRecord(t *testing.T) {
	var seenPath, seenMethod string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenMethod = r.Method
		seenPath = r.URL.Path
		json.NewEncoder(w).Encode(models.Job{
			ID:         "job-7",
			WebpageURL: "https://www.myntra.com/tshirts",
			Status:     models.JobProcessing,
		})
	}))

	job, err := client.JobStatus(context.Background(), "job-7")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, seenMethod)
	assert.Equal(t, "/api/scrape/job-7/status/", seenPath)
	assert.Equal(t, "job-7", job.ID)
	assert.Equal(t, models.JobProcessing, job.Status)
}

func TestJobResult_FetchesTerminalResult(t *testing.T) {
	var seenPath string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		json.NewEncoder(w).Encode(models.JobResult{
			JobID:  "job-7",
			Status: models.JobCompleted,
			Listing: &models.ListingPayload{
				Items: []models.ListingItem{
					{URL: "https://www.myntra.com/p/1", PageRank: 1},
					{URL: "https://www.myntra.com/p/2", PageRank: 2},
				},
				PageIndex: 1,
			},
		})
	}))

	result, err := client.JobResult(context.Background(), "job-7")
	require.NoError(t, err)

	assert.Equal(t, "/api/scrape/job-7/result/", seenPath)
	assert.Equal(t, models.JobCompleted, result.Status)
	require.NotNil(t, result.Listing)
	assert.Len(t, result.Listing.Items, 2)
	assert.Equal(t, 2, result.Listing.Items[1].PageRank)
}

func TestJobResult_NotReadyPropagatesStatusCode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "result not found for job job-7", http.StatusNotFound)
	}))

	_, err := client.JobResult(context.Background(), "job-7")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestNew_TrimsTrailingSlashFromBaseURL(t *testing.T) {
	var seenPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		json.NewEncoder(w).Encode(models.ScrapeResponse{JobID: "job-1"})
	}))
	defer srv.Close()

	client := New(&common.AgentConfig{APIURL: srv.URL + "/", Token: "t"}, arbor.NewLogger())
	_, err := client.SubmitScrape(context.Background(), "https://www.myntra.com/tshirts", models.PriorityLow, models.JobTypeListing)
	require.NoError(t, err)
	assert.Equal(t, "/api/scrape", seenPath)
}
