package worker

import (
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// runListing walks a listing's pagination chain and collects every product
// URL it sees. Ranks are assigned in discovery order across the whole walk,
// starting at 1. Empty pages contribute nothing but do not stop the walk;
// only a missing next link or the page cap does.
func (p *Pool) runListing(task *interfaces.ScrapeTask) (*models.JobResult, error) {
	s, err := p.registry.ScraperFor(task.WebpageURL)
	if err != nil {
		return nil, err
	}
	defer p.registry.Release(s)

	pageCap := p.config.Scraper.ListingPageCap
	if pageCap <= 0 {
		pageCap = 30
	}

	var items []models.ListingItem
	rank := 1
	url := task.WebpageURL

	for pages := 0; url != "" && pages < pageCap; pages++ {
		pagination, err := s.Pagination(url)
		if err != nil {
			return nil, err
		}

		found, err := s.ProductListings(url, pagination.CurrentPage)
		if err != nil {
			return nil, err
		}

		for _, u := range found {
			items = append(items, models.ListingItem{URL: u, PageRank: rank})
			rank++
		}

		url = pagination.NextPageURL
	}

	return models.NewListingJobResult(task.JobID, items, 0), nil
}

// runProduct scrapes a single product page into a Product record.
func (p *Pool) runProduct(task *interfaces.ScrapeTask) (*models.JobResult, error) {
	s, err := p.registry.ScraperFor(task.WebpageURL)
	if err != nil {
		return nil, err
	}
	defer p.registry.Release(s)

	product, err := s.ProductDetails(task.WebpageURL)
	if err != nil {
		return nil, err
	}

	return models.NewProductJobResult(task.JobID, product), nil
}
