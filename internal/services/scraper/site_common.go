package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// docLoader wraps a ContentLoader with a one-page memo. Listing walks call
// Pagination and ProductListings against the same URL back to back; the
// memo lets one navigation serve both. Safe because cache checkout gives
// each scraper a single caller.
type docLoader struct {
	loader  ContentLoader
	lastURL string
	lastDoc *goquery.Document
}

func newDocLoader(loader ContentLoader) *docLoader {
	return &docLoader{loader: loader}
}

func (d *docLoader) doc(url string) (*goquery.Document, error) {
	if url == d.lastURL && d.lastDoc != nil {
		return d.lastDoc, nil
	}

	html, err := d.loader.LoadContent(url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataParsing, url, err)
	}

	d.lastURL = url
	d.lastDoc = doc
	return doc, nil
}

func (d *docLoader) content(url string) (string, error) {
	return d.loader.LoadContent(url)
}

func (d *docLoader) Close() error {
	d.lastDoc = nil
	return d.loader.Close()
}

var priceDigits = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// parsePrice extracts a numeric price from marketplace price text such as
// "₹1,299", "Rs. 3,990.00" or "1,299.00". Returns 0 when no number is found.
func parsePrice(text string) float64 {
	match := priceDigits.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return value
}

var intDigits = regexp.MustCompile(`[0-9][0-9,]*`)

// parseCount extracts an integer from text like "1,234 ratings".
func parseCount(text string) int {
	match := intDigits.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return value
}

// parseRating extracts a rating from text like "4.2 out of 5 stars" or "4.2".
// Returns nil when nothing numeric is present.
func parseRating(text string) *float64 {
	match := priceDigits.FindString(text)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil || value < 0 || value > 5 {
		return nil
	}
	return &value
}

// detectGender maps breadcrumb or category text onto the gender constants.
// "women" must be checked before "men" because it contains it.
func detectGender(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "women") || strings.Contains(lower, "woman"):
		return "Women"
	case strings.Contains(lower, "men") || strings.Contains(lower, "man"):
		return "Men"
	case strings.Contains(lower, "unisex"):
		return "Unisex"
	default:
		return ""
	}
}

// cleanSpace collapses runs of whitespace into single spaces and trims.
func cleanSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// uniqueStrings keeps first occurrences, preserving order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// lastPathSegment returns the final non-empty path segment of a URL,
// with any query string removed. Shopify-style sites key products by it.
func lastPathSegment(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
