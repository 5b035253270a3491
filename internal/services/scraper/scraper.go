package scraper

import (
	"github.com/ternarybob/vestio/internal/models"
)

// Pagination describes where a listing page sits in its chain. An empty
// NextPageURL ends the walk.
type Pagination struct {
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	NextPageURL string `json:"next_page_url"`
}

// Scraper extracts structured data from one site. Implementations hold a
// live ContentLoader (browser or HTTP session), so instances are pooled in
// the cache rather than rebuilt per job. A Scraper is not safe for
// concurrent use; the cache hands each instance to one caller at a time.
type Scraper interface {
	// Source returns the registry token this scraper serves, e.g. "amazon".
	Source() string

	// PageContent loads and returns the raw HTML of a page.
	PageContent(url string) (string, error)

	// Pagination reads the pagination state of a listing page.
	Pagination(url string) (*Pagination, error)

	// ProductListings returns the product page URLs found on one listing page.
	ProductListings(url string, page int) ([]string, error)

	// ProductDetails scrapes one product page into a Product record.
	ProductDetails(url string) (*models.Product, error)

	// Close releases the underlying loader.
	Close() error
}
