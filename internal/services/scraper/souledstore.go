package scraper

import (
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/models"
)

const (
	souledStoreIDPrefix       = "sstore_"
	souledStoreScrollTarget   = "tss-footer"
	souledStoreScrollDelaySec = 10
)

// SouledStoreScraper extracts The Souled Store. Category pages append
// cards on scroll with a slow backend, hence the long scroll delay.
// Product descriptions are rich HTML (tables, lists, embedded care
// instructions), so they are converted to markdown rather than flattened
// to text.
type SouledStoreScraper struct {
	*docLoader
	converter *md.Converter
}

// NewSouledStoreScraper starts a scrolling browser-backed scraper
func NewSouledStoreScraper(opts LoaderOptions) (Scraper, error) {
	loader, err := NewScrollingBrowserLoader(opts, souledStoreScrollTarget, souledStoreScrollDelaySec*time.Second)
	if err != nil {
		return nil, err
	}
	return &SouledStoreScraper{
		docLoader: newDocLoader(loader),
		converter: md.NewConverter("", true, nil),
	}, nil
}

// Source returns the registry token
func (s *SouledStoreScraper) Source() string { return "thesouledstore" }

// PageContent returns the fully scrolled HTML of a page
func (s *SouledStoreScraper) PageContent(url string) (string, error) {
	return s.content(url)
}

// Pagination reports a single page: infinite scroll folds the whole
// category into one load.
func (s *SouledStoreScraper) Pagination(url string) (*Pagination, error) {
	return &Pagination{CurrentPage: 1, TotalPages: 1, NextPageURL: ""}, nil
}

// ProductListings returns the product page URLs in the scrolled category
func (s *SouledStoreScraper) ProductListings(pageURL string, page int) ([]string, error) {
	doc, err := s.doc(pageURL)
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("div.productCard a").Each(func(_ int, sel *goquery.Selection) {
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

	if len(urls) == 0 && doc.Find("div.productCard").Length() == 0 {
		return nil, fmt.Errorf("%w: no product cards on %s", ErrDataComponentNotFound, pageURL)
	}

	return uniqueStrings(urls), nil
}

// ProductDetails scrapes one Souled Store product page
func (s *SouledStoreScraper) ProductDetails(pageURL string) (*models.Product, error) {
	html, err := s.content(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataParsing, pageURL, err)
	}

	slug := lastPathSegment(pageURL)
	if slug == "" {
		return nil, fmt.Errorf("%w: no product slug in %s", ErrBadURL, pageURL)
	}

	title := cleanSpace(doc.Find("h1.fbold.mb-0.title-size").First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: no product title on %s", ErrDataComponentNotFound, pageURL)
	}

	priceText := doc.Find("span.leftPrice").First().Text()
	if cleanSpace(priceText) == "" {
		priceText = doc.Find("span.offer").First().Text()
	}

	category := cleanSpace(doc.Find("h1.prod-cat").First().Text())

	product := &models.Product{
		ID:              souledStoreIDPrefix + slug,
		Title:           title,
		URL:             common.StripQuery(pageURL),
		Price:           parsePrice(priceText),
		Category:        category,
		Gender:          detectGender(category + " " + title),
		ScrapedDatetime: time.Now().UTC(),
		PageContent:     html,
	}

	if src, ok := doc.Find("div.productImg img, div.carousel-item img").First().Attr("src"); ok {
		resolved, err := common.ResolveURL(pageURL, src)
		if err == nil {
			product.ImageURL = resolved
		}
	}

	var sizes []string
	doc.Find("ul.sizelist li").Each(func(_ int, sel *goquery.Selection) {
		sizes = append(sizes, cleanSpace(sel.Text()))
	})
	product.Sizes = uniqueStrings(sizes)

	if descHTML, err := doc.Find("div#description").First().Html(); err == nil && cleanSpace(descHTML) != "" {
		markdown, err := s.converter.ConvertString(descHTML)
		if err == nil {
			product.Description = strings.TrimSpace(markdown)
		}
	}

	return product, nil
}
