package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/models"
)

const myntraIDPrefix = "mynt_"

var (
	myntraPageMeta = regexp.MustCompile(`Page\s+(\d+)\s+of\s+(\d+)`)
	myntraStyleID  = regexp.MustCompile(`/(\d+)/buy`)
)

// MyntraScraper extracts listing pages and product pages from Myntra.
// The catalog is a React app, so it runs on a browser loader.
type MyntraScraper struct {
	*docLoader
}

// NewMyntraScraper starts a browser-backed Myntra scraper
func NewMyntraScraper(opts LoaderOptions) (Scraper, error) {
	loader, err := NewBrowserLoader(opts)
	if err != nil {
		return nil, err
	}
	return &MyntraScraper{docLoader: newDocLoader(loader)}, nil
}

// Source returns the registry token
func (s *MyntraScraper) Source() string { return "myntra" }

// PageContent returns the rendered HTML of a page
func (s *MyntraScraper) PageContent(url string) (string, error) {
	return s.content(url)
}

// Pagination reads the "Page X of Y" meta strip. The next page URL is the
// canonical URL with its p= parameter bumped; Myntra's next button is a
// JS handler, not a link.
func (s *MyntraScraper) Pagination(pageURL string) (*Pagination, error) {
	doc, err := s.doc(pageURL)
	if err != nil {
		return nil, err
	}

	p := &Pagination{CurrentPage: 1, TotalPages: 1}

	meta := cleanSpace(doc.Find("li.pagination-paginationMeta").First().Text())
	if match := myntraPageMeta.FindStringSubmatch(meta); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			p.CurrentPage = n
		}
		if n, err := strconv.Atoi(match[2]); err == nil {
			p.TotalPages = n
		}
	}

	if p.CurrentPage >= p.TotalPages {
		return p, nil
	}

	base, ok := doc.Find("link[rel='canonical']").First().Attr("href")
	if !ok {
		base, ok = doc.Find("meta[property='og:url']").First().Attr("content")
	}
	if !ok || base == "" {
		base = pageURL
	}

	next, err := withPageParam(base, p.CurrentPage+1)
	if err != nil {
		return nil, fmt.Errorf("%w: next page of %s: %v", ErrDataParsing, pageURL, err)
	}
	p.NextPageURL = next

	return p, nil
}

// ProductListings returns the product page URLs on one listing page
func (s *MyntraScraper) ProductListings(pageURL string, page int) ([]string, error) {
	doc, err := s.doc(pageURL)
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("li.product-base").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Find("a").First().Attr("href")
		if !ok {
			return
		}
		resolved, err := common.ResolveURL("https://www.myntra.com/", href)
		if err != nil {
			return
		}
		urls = append(urls, common.StripQuery(resolved))
	})

	return uniqueStrings(urls), nil
}

// ProductDetails scrapes one Myntra product page
func (s *MyntraScraper) ProductDetails(pageURL string) (*models.Product, error) {
	html, err := s.content(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataParsing, pageURL, err)
	}

	styleID := cleanSpace(doc.Find("span.supplier-styleId").First().Text())
	if styleID == "" {
		if match := myntraStyleID.FindStringSubmatch(pageURL); match != nil {
			styleID = match[1]
		}
	}
	if styleID == "" {
		return nil, fmt.Errorf("%w: no style id on %s", ErrDataComponentNotFound, pageURL)
	}

	title := cleanSpace(doc.Find("h1.pdp-name").First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: no product name on %s", ErrDataComponentNotFound, pageURL)
	}

	product := &models.Product{
		ID:              myntraIDPrefix + styleID,
		Title:           title,
		URL:             common.StripQuery(pageURL),
		Price:           parsePrice(doc.Find("span.pdp-price").First().Text()),
		ScrapedDatetime: time.Now().UTC(),
		PageContent:     html,
	}

	var crumbs []string
	doc.Find("a.breadcrumbs-link").Each(func(_ int, sel *goquery.Selection) {
		if text := cleanSpace(sel.Text()); text != "" && !strings.EqualFold(text, "Home") {
			crumbs = append(crumbs, text)
		}
	})
	if len(crumbs) > 0 {
		product.Category = crumbs[len(crumbs)-1]
		product.Gender = detectGender(strings.Join(crumbs, " "))
	}

	product.Rating = parseRating(doc.Find("div.index-overallRating div").First().Text())
	product.ReviewCount = parseCount(doc.Find("div.index-ratingsCount").First().Text())

	if src, ok := doc.Find("div.image-grid-imageContainer img").First().Attr("src"); ok {
		product.ImageURL = src
	}

	var sizes []string
	doc.Find("button.size-buttons-size-button p").Each(func(_ int, sel *goquery.Selection) {
		sizes = append(sizes, cleanSpace(sel.Text()))
	})
	product.Sizes = uniqueStrings(sizes)

	product.Description = cleanSpace(doc.Find("p.pdp-product-description-content").First().Text())

	return product, nil
}

// withPageParam sets the p= query parameter on a listing URL
func withPageParam(rawURL string, page int) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("p", strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
