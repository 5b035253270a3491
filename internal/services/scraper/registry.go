package scraper

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
)

// factory constructs a fresh scraper for one site.
type factory func() (Scraper, error)

// Registry maps second-level domain tokens to scraper factories and
// fronts the instance cache: lookups reuse a warm instance when one is
// available and construct otherwise.
type Registry struct {
	factories map[string]factory
	cache     *Cache
	logger    arbor.ILogger
}

// NewRegistry creates a registry with every supported site registered
func NewRegistry(cfg *common.ScraperConfig, cache *Cache, logger arbor.ILogger) *Registry {
	opts := LoaderOptionsFromConfig(cfg)

	r := &Registry{
		factories: make(map[string]factory),
		cache:     cache,
		logger:    logger,
	}

	r.factories["amazon"] = func() (Scraper, error) { return NewAmazonScraper(opts) }
	r.factories["myntra"] = func() (Scraper, error) { return NewMyntraScraper(opts) }
	r.factories["bluorng"] = func() (Scraper, error) { return NewBluorngScraper(opts) }
	r.factories["jaywalking"] = func() (Scraper, error) { return NewJaywalkingScraper(opts) }
	r.factories["thesouledstore"] = func() (Scraper, error) { return NewSouledStoreScraper(opts) }

	return r
}

// Token extracts the registry token from a URL: the first label of the
// host with "www." stripped, so "https://www.amazon.in/s?k=x" → "amazon".
func Token(rawURL string) (string, error) {
	host, err := common.HostToken(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadURL, err)
	}

	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "", fmt.Errorf("%w: %s", ErrBadURL, rawURL)
	}
	return label, nil
}

// ScraperFor returns a scraper able to handle the URL, preferring a warm
// cached instance. Unknown domains return ErrBadURL.
func (r *Registry) ScraperFor(rawURL string) (Scraper, error) {
	token, err := Token(rawURL)
	if err != nil {
		return nil, err
	}

	build, ok := r.factories[token]
	if !ok {
		return nil, fmt.Errorf("%w: no scraper registered for %q", ErrBadURL, token)
	}

	if cached := r.cache.Get(token); cached != nil {
		return cached, nil
	}

	r.logger.Debug().Str("source", token).Msg("Constructing scraper")
	s, err := build()
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s scraper: %w", token, err)
	}
	return s, nil
}

// Release returns a scraper to the cache for reuse
func (r *Registry) Release(s Scraper) {
	if s == nil {
		return
	}
	r.cache.Insert(s.Source(), s)
}

// Flush closes every cached instance
func (r *Registry) Flush() {
	r.cache.Flush()
}
