package scraper

import "errors"

// Sentinel errors for the scraper kit. Site scrapers and loaders wrap
// these with %w so callers can classify failures with errors.Is while the
// wrapped text still names the URL or selector that failed.
var (
	// ErrBadURL - the URL is malformed or no scraper is registered for its domain
	ErrBadURL = errors.New("bad or unsupported url")

	// ErrContentNotLoaded - the loader could not produce page HTML
	ErrContentNotLoaded = errors.New("content not loaded")

	// ErrTimeout - the page did not load within the allowed time
	ErrTimeout = errors.New("page load timed out")

	// ErrRateLimit - the site throttled or blocked the request
	ErrRateLimit = errors.New("rate limited by site")

	// ErrDataComponentNotFound - an expected page component is missing
	ErrDataComponentNotFound = errors.New("data component not found")

	// ErrDataParsing - a component was found but its content did not parse
	ErrDataParsing = errors.New("data parsing failed")
)
