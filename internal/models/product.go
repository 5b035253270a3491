package models

import (
	"fmt"
	"time"
)

// Gender constants
const (
	GenderMen    = "Men"
	GenderWomen  = "Women"
	GenderUnisex = "Unisex"
)

// Product is the canonical record produced by scraping a product page.
// The ID is source-stable (scraper prefix + the site's own product token,
// e.g. "amzn_B0D25JKGJP"), so repeated scrapes of the same product converge
// on one document regardless of which URL discovered it.
type Product struct {
	ID                string     `json:"id" bson:"id"`
	URLID             string     `json:"url_id" bson:"url_id"` // ProductURL.ID that first produced this product
	Title             string     `json:"title" bson:"title"`
	Price             float64    `json:"price" bson:"price"`
	Category          string     `json:"category" bson:"category"`
	Gender            string     `json:"gender" bson:"gender"`
	URL               string     `json:"url" bson:"url"`
	ImageURL          string     `json:"image_url" bson:"image_url"`
	Colors            []string   `json:"colors" bson:"colors"`
	Sizes             []string   `json:"size" bson:"size"`
	Material          string     `json:"material" bson:"material"`
	Description       string     `json:"description" bson:"description"`
	Rating            *float64   `json:"rating" bson:"rating"`
	ReviewCount       int        `json:"review_count" bson:"review_count"`
	Processed         bool       `json:"processed" bson:"processed"`
	ScrapedDatetime   time.Time  `json:"scraped_datetime" bson:"scraped_datetime"`
	ProcessedDatetime *time.Time `json:"processed_datetime" bson:"processed_datetime"`
	PageIndex         int        `json:"page_index" bson:"page_index"`
	PageContent       string     `json:"page_content" bson:"page_content"`
}

// Validate validates the product fields
func (p *Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product ID is required")
	}
	if p.URL == "" {
		return fmt.Errorf("product URL is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return fmt.Errorf("product rating %.2f out of range [0,5]", *p.Rating)
	}
	if p.ReviewCount < 0 {
		return fmt.Errorf("product review_count cannot be negative")
	}
	if p.PageIndex < 0 {
		return fmt.Errorf("product page_index cannot be negative")
	}
	return nil
}

// ApplyAdditive merges a freshly scraped record into an existing product.
// Only fields the new scrape actually populated are written; missing or
// empty values never clobber data from an earlier scrape. Returns the set
// of changed fields keyed by their stored names, ready for a targeted
// update, or an empty map when the scrape added nothing.
func (p *Product) ApplyAdditive(in *Product) map[string]interface{} {
	changes := make(map[string]interface{})

	if in.Price > 0 {
		p.Price = in.Price
		changes["price"] = in.Price
	}
	if len(in.Colors) > 0 {
		p.Colors = in.Colors
		changes["colors"] = in.Colors
	}
	if len(in.Sizes) > 0 {
		p.Sizes = in.Sizes
		changes["size"] = in.Sizes
	}
	if in.Rating != nil {
		p.Rating = in.Rating
		changes["rating"] = *in.Rating
	}
	if in.ReviewCount > 0 {
		p.ReviewCount = in.ReviewCount
		changes["review_count"] = in.ReviewCount
	}
	if !in.ScrapedDatetime.IsZero() {
		p.ScrapedDatetime = in.ScrapedDatetime
		changes["scraped_datetime"] = in.ScrapedDatetime
	}
	if in.PageContent != "" {
		p.PageContent = in.PageContent
		changes["page_content"] = in.PageContent
	}

	return changes
}

// MarkProcessed flags the product as annotated downstream.
func (p *Product) MarkProcessed(at time.Time) {
	p.Processed = true
	p.ProcessedDatetime = &at
}
