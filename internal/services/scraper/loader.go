package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/vestio/internal/common"
)

// ContentLoader fetches the HTML of a page. Implementations own their
// transport (HTTP client or browser) and must be closed when evicted.
type ContentLoader interface {
	LoadContent(url string) (string, error)
	Close() error
}

// LoaderOptions carries the tuning shared by all loader variants.
type LoaderOptions struct {
	UserAgent   string
	Timeout     time.Duration
	Headless    bool
	PageWait    time.Duration
	MaxScrolls  int
	ScrollDelay time.Duration
}

// LoaderOptionsFromConfig maps the scraper config section onto loader options.
func LoaderOptionsFromConfig(cfg *common.ScraperConfig) LoaderOptions {
	return LoaderOptions{
		UserAgent:   cfg.UserAgent,
		Timeout:     common.Duration(cfg.RequestTimeout, 20*time.Second),
		Headless:    cfg.Headless,
		PageWait:    common.Duration(cfg.PageWaitTime, 3*time.Second),
		MaxScrolls:  cfg.MaxScrolls,
		ScrollDelay: common.Duration(cfg.ScrollDelay, 3*time.Second),
	}
}

// RequestLoader is the plain HTTP loader for sites that render server-side.
// A per-loader rate limiter keeps request cadence polite even when the same
// scraper instance serves many jobs back to back.
type RequestLoader struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewRequestLoader creates an HTTP content loader
func NewRequestLoader(opts LoaderOptions) *RequestLoader {
	return &RequestLoader{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		userAgent: opts.UserAgent,
	}
}

// LoadContent GETs the page and returns its HTML
func (l *RequestLoader) LoadContent(url string) (string, error) {
	if err := l.limiter.Wait(context.Background()); err != nil {
		return "", fmt.Errorf("%w: limiter interrupted for %s", ErrContentNotLoaded, url)
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadURL, url)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrContentNotLoaded, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: %s returned %d", ErrRateLimit, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s returned %d", ErrContentNotLoaded, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrContentNotLoaded, url, err)
	}

	return string(body), nil
}

// Close is a no-op for the HTTP loader
func (l *RequestLoader) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	if t, ok := err.(timeout); ok {
		return t.Timeout()
	}
	return false
}
