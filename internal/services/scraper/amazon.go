package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/models"
)

const amazonIDPrefix = "amzn_"

var asinPattern = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)

// AmazonScraper extracts search listings and product pages from Amazon.
// Amazon renders search results client-side and aggressively serves
// captcha interstitials to plain HTTP clients, so it runs on a browser
// loader.
type AmazonScraper struct {
	*docLoader
}

// NewAmazonScraper starts a browser-backed Amazon scraper
func NewAmazonScraper(opts LoaderOptions) (Scraper, error) {
	loader, err := NewBrowserLoader(opts)
	if err != nil {
		return nil, err
	}
	return &AmazonScraper{docLoader: newDocLoader(loader)}, nil
}

// Source returns the registry token
func (s *AmazonScraper) Source() string { return "amazon" }

// PageContent returns the rendered HTML of a page
func (s *AmazonScraper) PageContent(url string) (string, error) {
	return s.content(url)
}

// Pagination reads the search result pagination strip
func (s *AmazonScraper) Pagination(url string) (*Pagination, error) {
	doc, err := s.doc(url)
	if err != nil {
		return nil, err
	}
	if err := s.checkBlocked(doc, url); err != nil {
		return nil, err
	}

	p := &Pagination{CurrentPage: 1, TotalPages: 1}

	if current := cleanSpace(doc.Find("span.s-pagination-item.s-pagination-selected").First().Text()); current != "" {
		if n, err := strconv.Atoi(current); err == nil {
			p.CurrentPage = n
		}
	}

	doc.Find("span.s-pagination-item").Each(func(_ int, sel *goquery.Selection) {
		if n, err := strconv.Atoi(cleanSpace(sel.Text())); err == nil && n > p.TotalPages {
			p.TotalPages = n
		}
	})

	next := doc.Find("a.s-pagination-next").First()
	if next.Length() > 0 && !next.HasClass("s-pagination-disabled") {
		if href, ok := next.Attr("href"); ok {
			resolved, err := common.ResolveURL(url, href)
			if err == nil {
				p.NextPageURL = resolved
			}
		}
	}

	return p, nil
}

// ProductListings returns the product page URLs on one search result page
func (s *AmazonScraper) ProductListings(url string, page int) ([]string, error) {
	doc, err := s.doc(url)
	if err != nil {
		return nil, err
	}
	if err := s.checkBlocked(doc, url); err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("a[href*='/dp/']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		resolved, err := common.ResolveURL(url, href)
		if err != nil {
			return
		}
		// Keep only real product links; sponsored redirects lack an ASIN.
		if !asinPattern.MatchString(resolved) {
			return
		}
		urls = append(urls, common.StripQuery(resolved))
	})

	return uniqueStrings(urls), nil
}

// ProductDetails scrapes one Amazon product page
func (s *AmazonScraper) ProductDetails(url string) (*models.Product, error) {
	html, err := s.content(url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataParsing, url, err)
	}
	if err := s.checkBlocked(doc, url); err != nil {
		return nil, err
	}

	asin := s.extractASIN(doc, url)
	if asin == "" {
		return nil, fmt.Errorf("%w: no ASIN on %s", ErrDataComponentNotFound, url)
	}

	title := cleanSpace(doc.Find("span#productTitle").First().Text())
	if title == "" {
		return nil, fmt.Errorf("%w: no product title on %s", ErrDataComponentNotFound, url)
	}

	product := &models.Product{
		ID:              amazonIDPrefix + asin,
		Title:           title,
		URL:             common.StripQuery(url),
		Price:           parsePrice(doc.Find("span.a-price-whole").First().Text()),
		ScrapedDatetime: time.Now().UTC(),
		PageContent:     html,
	}

	// Breadcrumbs carry both the category leaf and the gender signal.
	var crumbs []string
	doc.Find("#wayfinding-breadcrumbs_feature_div a.a-link-normal.a-color-tertiary").Each(func(_ int, sel *goquery.Selection) {
		if text := cleanSpace(sel.Text()); text != "" {
			crumbs = append(crumbs, text)
		}
	})
	if len(crumbs) > 0 {
		product.Category = crumbs[len(crumbs)-1]
		product.Gender = detectGender(strings.Join(crumbs, " "))
	}

	if ratingTitle, ok := doc.Find("span#acrPopover").First().Attr("title"); ok {
		product.Rating = parseRating(ratingTitle)
	}
	reviewText := doc.Find("span#acrCustomerReviewText").First()
	if aria, ok := reviewText.Attr("aria-label"); ok {
		product.ReviewCount = parseCount(aria)
	} else {
		product.ReviewCount = parseCount(reviewText.Text())
	}

	if src, ok := doc.Find("div#imgTagWrapperId img").First().Attr("src"); ok {
		product.ImageURL = src
	}

	var colors []string
	doc.Find("img.swatch-image").Each(func(_ int, sel *goquery.Selection) {
		if alt, ok := sel.Attr("alt"); ok {
			colors = append(colors, cleanSpace(alt))
		}
	})
	product.Colors = uniqueStrings(colors)

	var sizes []string
	doc.Find("#inline-twister-expander-content-size_name span.swatch-title-text-display").Each(func(_ int, sel *goquery.Selection) {
		sizes = append(sizes, cleanSpace(sel.Text()))
	})
	product.Sizes = uniqueStrings(sizes)

	product.Material = s.extractMaterial(doc)

	var bullets []string
	doc.Find("#productFactsDesktopExpander ul li span").Each(func(_ int, sel *goquery.Selection) {
		if text := cleanSpace(sel.Text()); text != "" {
			bullets = append(bullets, text)
		}
	})
	product.Description = strings.Join(bullets, "\n")

	return product, nil
}

// extractASIN reads the ASIN from the detail bullets, falling back to the
// /dp/ segment of the URL.
func (s *AmazonScraper) extractASIN(doc *goquery.Document, url string) string {
	var asin string
	doc.Find("#detailBullets_feature_div li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label := cleanSpace(sel.Find("span.a-text-bold").First().Text())
		if !strings.Contains(label, "ASIN") {
			return true
		}
		values := sel.Find("span span")
		asin = cleanSpace(values.Last().Text())
		return asin == ""
	})
	if asin != "" {
		return asin
	}

	if match := asinPattern.FindStringSubmatch(url); match != nil {
		return match[1]
	}
	return ""
}

// extractMaterial reads the material row from the product facts table
func (s *AmazonScraper) extractMaterial(doc *goquery.Document) string {
	var material string
	doc.Find("div.product-facts-detail").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label := cleanSpace(sel.Find("div.a-col-left").First().Text())
		if !strings.Contains(strings.ToLower(label), "material") {
			return true
		}
		material = cleanSpace(sel.Find("div.a-col-right").First().Text())
		return false
	})
	return material
}

// checkBlocked classifies Amazon's captcha interstitial as rate limiting
// so the job fails with a retryable reason instead of parsing garbage.
func (s *AmazonScraper) checkBlocked(doc *goquery.Document, url string) error {
	pageTitle := strings.ToLower(doc.Find("title").First().Text())
	if strings.Contains(pageTitle, "robot check") ||
		doc.Find("form[action='/errors/validateCaptcha']").Length() > 0 {
		return fmt.Errorf("%w: captcha served on %s", ErrRateLimit, url)
	}
	return nil
}
