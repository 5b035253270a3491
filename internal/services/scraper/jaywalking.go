package scraper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/models"
)

const jaywalkingIDPrefix = "jywlkng_"

// JaywalkingScraper extracts the Jaywalking Shopify storefront. The theme
// paginates collections with numbered links and renders fine in a plain
// browser load.
type JaywalkingScraper struct {
	*docLoader
}

// NewJaywalkingScraper starts a browser-backed Jaywalking scraper
func NewJaywalkingScraper(opts LoaderOptions) (Scraper, error) {
	loader, err := NewBrowserLoader(opts)
	if err != nil {
		return nil, err
	}
	return &JaywalkingScraper{docLoader: newDocLoader(loader)}, nil
}

// Source returns the registry token
func (s *JaywalkingScraper) Source() string { return "jaywalking" }

// PageContent returns the rendered HTML of a page
func (s *JaywalkingScraper) PageContent(url string) (string, error) {
	return s.content(url)
}

// Pagination reads the theme's numbered pagination block
func (s *JaywalkingScraper) Pagination(pageURL string) (*Pagination, error) {
	doc, err := s.doc(pageURL)
	if err != nil {
		return nil, err
	}

	p := &Pagination{CurrentPage: 1, TotalPages: 1}

	pagination := doc.Find("div[class^='pagination']").First()
	if pagination.Length() == 0 {
		return p, nil
	}

	if current := cleanSpace(pagination.Find("span.pagination__current, span.current").First().Text()); current != "" {
		if n, err := strconv.Atoi(current); err == nil {
			p.CurrentPage = n
		}
	}

	pagination.Find("a, span").Each(func(_ int, sel *goquery.Selection) {
		if n, err := strconv.Atoi(cleanSpace(sel.Text())); err == nil && n > p.TotalPages {
			p.TotalPages = n
		}
	})

	if href, ok := pagination.Find("a.next").First().Attr("href"); ok {
		// The next link carries tracking after "&"; only the page part matters.
		href, _, _ = strings.Cut(href, "&")
		resolved, err := common.ResolveURL(pageURL, href)
		if err == nil {
			p.NextPageURL = resolved
		}
	}

	return p, nil
}

// ProductListings returns the product page URLs on one collection page.
// Gift card placements are skipped; they are not apparel.
func (s *JaywalkingScraper) ProductListings(pageURL string, page int) ([]string, error) {
	doc, err := s.doc(pageURL)
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("a.product-item__special-link").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.Contains(href, "gift-card") {
			return
		}
		resolved, err := common.ResolveURL(pageURL, href)
		if err != nil {
			return
		}
		urls = append(urls, common.StripQuery(resolved))
	})

	return uniqueStrings(urls), nil
}

// ProductDetails scrapes one Jaywalking product page
func (s *JaywalkingScraper) ProductDetails(pageURL string) (*models.Product, error) {
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

	title := cleanSpace(doc.Find("h1.product-title").First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: no product title on %s", ErrDataComponentNotFound, pageURL)
	}

	product := &models.Product{
		ID:              jaywalkingIDPrefix + handle,
		Title:           title,
		URL:             common.StripQuery(pageURL),
		Price:           parsePrice(doc.Find("span.price, div.product-price").First().Text()),
		Gender:          models.GenderUnisex, // drops are unisex streetwear
		ScrapedDatetime: time.Now().UTC(),
		PageContent:     html,
	}

	if src, ok := doc.Find("div.product-gallery img, div.product__media img").First().Attr("src"); ok {
		resolved, err := common.ResolveURL(pageURL, src)
		if err == nil {
			product.ImageURL = resolved
		}
	}

	var sizes []string
	doc.Find("div.product-form__option label, fieldset.product-form__input label").Each(func(_ int, sel *goquery.Selection) {
		sizes = append(sizes, cleanSpace(sel.Text()))
	})
	product.Sizes = uniqueStrings(sizes)

	product.Description = cleanSpace(doc.Find("div.product-description, div.product__description").First().Text())

	return product, nil
}
