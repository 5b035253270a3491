// Package agentclient provides the ingestor's HTTP client for the
// scraping agent API.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

const (
	// DefaultSubmitTimeout bounds scrape submissions.
	DefaultSubmitTimeout = 30 * time.Second

	// DefaultResultTimeout bounds status and result fetches. Result
	// payloads carry full page content, so this stays separate from the
	// submit timeout.
	DefaultResultTimeout = 20 * time.Second
)

// Client is a scraping agent API client.
type Client struct {
	baseURL       string
	token         string
	submitTimeout time.Duration
	resultTimeout time.Duration
	httpClient    *http.Client
	logger        arbor.ILogger
}

// New creates a new agent API client from the ingestor configuration.
func New(config *common.AgentConfig, logger arbor.ILogger) interfaces.AgentClient {
	return &Client{
		baseURL:       strings.TrimRight(config.APIURL, "/"),
		token:         config.Token,
		submitTimeout: common.Duration(config.SubmitTimeout, DefaultSubmitTimeout),
		resultTimeout: common.Duration(config.ResultTimeout, DefaultResultTimeout),
		httpClient:    &http.Client{},
		logger:        logger,
	}
}

// APIError represents an error response from the agent API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// SubmitScrape posts a scrape request and returns the accepted job id.
func (c *Client) SubmitScrape(ctx context.Context, url string, priority models.JobPriority, typePage models.JobType) (string, error) {
	req := models.ScrapeRequest{
		WebpageURL: url,
		Priority:   string(priority),
		TypePage:   string(typePage),
	}

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	var resp models.ScrapeResponse
	if err := c.post(ctx, "/api/scrape", req, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("agent accepted scrape but returned no job id")
	}

	c.logger.Debug().
		Str("job_id", resp.JobID).
		Str("url", url).
		Str("priority", string(priority)).
		Msg("Scrape submitted to agent")
	return resp.JobID, nil
}

// JobStatus fetches the current job record.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*models.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, c.resultTimeout)
	defer cancel()

	var job models.Job
	if err := c.get(ctx, fmt.Sprintf("/api/scrape/%s/status/", jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobResult fetches the terminal result for a job.
func (c *Client) JobResult(ctx context.Context, jobID string) (*models.JobResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.resultTimeout)
	defer cancel()

	var result models.JobResult
	if err := c.get(ctx, fmt.Sprintf("/api/scrape/%s/result/", jobID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// get performs a GET request against the agent API.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, path, result)
}

// post performs a POST request with a JSON body against the agent API.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, result)
}

// do executes the request with auth headers and decodes the response.
func (c *Client) do(req *http.Request, path string, result interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
