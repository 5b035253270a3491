package common

import (
	"fmt"
	"net/url"
	"strings"
)

// HostToken extracts the registrable host from a URL for scraper matching.
// The "www." prefix is stripped so "https://www.amazon.in/s?k=shirts" and
// "https://amazon.in/deals" both map to "amazon.in".
func HostToken(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	host = strings.TrimPrefix(host, "www.")
	return host, nil
}

// StripQuery removes the query string and fragment from a URL, returning the
// canonical form used for product identity. Marketplace links carry tracking
// parameters (ref, qid, sprefix) that would otherwise split one product into
// many records.
func StripQuery(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		// Fall back to manual trimming when the URL won't parse
		if idx := strings.IndexAny(rawURL, "?#"); idx >= 0 {
			return rawURL[:idx]
		}
		return rawURL
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// RedactURL masks the password in a connection URL so it can be logged.
func RedactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
		}
	}
	return parsed.String()
}

// ResolveURL resolves a possibly-relative href against the page it was found
// on. Listing pages frequently emit relative next-page and product links.
func ResolveURL(pageURL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}

	return base.ResolveReference(ref).String(), nil
}
