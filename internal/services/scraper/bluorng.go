package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/models"
)

const (
	bluorngIDPrefix       = "bluorng_"
	bluorngScrollTarget   = "f-marquee"
	bluorngScrollDelaySec = 3
)

// BluorngScraper extracts the Bluorng Shopify storefront. Collections
// load products through infinite scroll, so the loader scrolls the page's
// marquee footer into view until the grid stops growing.
type BluorngScraper struct {
	*docLoader
}

// NewBluorngScraper starts a scrolling browser-backed Bluorng scraper
func NewBluorngScraper(opts LoaderOptions) (Scraper, error) {
	loader, err := NewScrollingBrowserLoader(opts, bluorngScrollTarget, bluorngScrollDelaySec*time.Second)
	if err != nil {
		return nil, err
	}
	return &BluorngScraper{docLoader: newDocLoader(loader)}, nil
}

// Source returns the registry token
func (s *BluorngScraper) Source() string { return "bluorng" }

// PageContent returns the fully scrolled HTML of a page
func (s *BluorngScraper) PageContent(url string) (string, error) {
	return s.content(url)
}

// Pagination reports a single page: infinite scroll folds the whole
// collection into one load.
func (s *BluorngScraper) Pagination(url string) (*Pagination, error) {
	return &Pagination{CurrentPage: 1, TotalPages: 1, NextPageURL: ""}, nil
}

// ProductListings returns the product page URLs in the scrolled collection
func (s *BluorngScraper) ProductListings(pageURL string, page int) ([]string, error) {
	doc, err := s.doc(pageURL)
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("div.card__content a[href*='/products/']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, err := common.ResolveURL(pageURL, href)
		if err != nil {
			return
		}
		urls = append(urls, common.StripQuery(resolved))
	})

	if len(urls) == 0 && doc.Find("div.card__content").Length() == 0 {
		return nil, fmt.Errorf("%w: no product grid on %s", ErrDataComponentNotFound, pageURL)
	}

	return uniqueStrings(urls), nil
}

// ProductDetails scrapes one Bluorng product page
func (s *BluorngScraper) ProductDetails(pageURL string) (*models.Product, error) {
	html, err := s.content(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataParsing, pageURL, err)
	}

	handle := lastPathSegment(pageURL)
	if handle == "" {
		return nil, fmt.Errorf("%w: no product handle in %s", ErrBadURL, pageURL)
	}

	title := cleanSpace(doc.Find("div.product__title h1").First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: no product title on %s", ErrDataComponentNotFound, pageURL)
	}

	priceText := doc.Find("span.price-item--sale").First().Text()
	if cleanSpace(priceText) == "" {
		priceText = doc.Find("span.price-item--regular").First().Text()
	}

	product := &models.Product{
		ID:              bluorngIDPrefix + handle,
		Title:           title,
		URL:             common.StripQuery(pageURL),
		Price:           parsePrice(priceText),
		Gender:          models.GenderUnisex, // single streetwear line, no gendered categories
		ScrapedDatetime: time.Now().UTC(),
		PageContent:     html,
	}

	if src, ok := doc.Find("div.product__media img").First().Attr("src"); ok {
		resolved, err := common.ResolveURL(pageURL, src)
		if err == nil {
			product.ImageURL = resolved
		}
	}

	var sizes []string
	doc.Find("fieldset.product-form__input label").Each(func(_ int, sel *goquery.Selection) {
		sizes = append(sizes, cleanSpace(sel.Text()))
	})
	product.Sizes = uniqueStrings(sizes)

	product.Description = cleanSpace(doc.Find("div.product__description").First().Text())

	return product, nil
}
