package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthJS masks the obvious automation signals before any site script
// runs. Marketplace bot checks look for navigator.webdriver first.
const stealthJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// BrowserLoader renders pages in headless Chrome for sites that build
// their DOM with JavaScript. Each loader owns one browser instance; it
// stays warm between jobs and is torn down on Close.
type BrowserLoader struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	timeout     time.Duration
	pageWait    time.Duration
}

// NewBrowserLoader starts a headless browser
func NewBrowserLoader(opts LoaderOptions) (*BrowserLoader, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so construction fails fast when Chrome
	// is unavailable, instead of on the first job.
	startCtx, startCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer startCancel()
	err := chromedp.Run(startCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthJS).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("%w: browser startup: %v", ErrContentNotLoaded, err)
	}

	return &BrowserLoader{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
		timeout:     opts.Timeout,
		pageWait:    opts.PageWait,
	}, nil
}

// LoadContent navigates to the page, waits for the body and the JS settle
// window, then returns the rendered DOM.
func (l *BrowserLoader) LoadContent(url string) (string, error) {
	ctx, cancel := context.WithTimeout(l.browserCtx, l.timeout+l.pageWait)
	defer cancel()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(l.pageWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrContentNotLoaded, url, err)
	}

	if html == "" {
		return "", fmt.Errorf("%w: %s returned empty document", ErrContentNotLoaded, url)
	}

	return html, nil
}

// Close tears down the browser and its allocator
func (l *BrowserLoader) Close() error {
	l.cancel()
	l.allocCancel()
	return nil
}

// ScrollingBrowserLoader extends the browser loader with infinite-scroll
// handling for listings that append products as the viewport reaches a
// target element (typically the page footer).
type ScrollingBrowserLoader struct {
	*BrowserLoader
	targetSelector string
	maxScrolls     int
	scrollDelay    time.Duration
}

// NewScrollingBrowserLoader starts a headless browser with scroll support.
// targetSelector names the element scrolled into view each step; when the
// selector is absent the loader falls back to fixed-height window scrolls.
func NewScrollingBrowserLoader(opts LoaderOptions, targetSelector string, scrollDelay time.Duration) (*ScrollingBrowserLoader, error) {
	base, err := NewBrowserLoader(opts)
	if err != nil {
		return nil, err
	}

	if scrollDelay <= 0 {
		scrollDelay = opts.ScrollDelay
	}

	return &ScrollingBrowserLoader{
		BrowserLoader:  base,
		targetSelector: targetSelector,
		maxScrolls:     opts.MaxScrolls,
		scrollDelay:    scrollDelay,
	}, nil
}

// LoadContent navigates, then scrolls until the document stops growing or
// the scroll cap is hit, and returns the fully expanded DOM.
func (l *ScrollingBrowserLoader) LoadContent(url string) (string, error) {
	// Scrolling multiplies the time budget: every step waits scrollDelay.
	total := l.timeout + l.pageWait + time.Duration(l.maxScrolls)*l.scrollDelay
	ctx, cancel := context.WithTimeout(l.browserCtx, total)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(l.pageWait),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrContentNotLoaded, url, err)
	}

	scrollScript := fmt.Sprintf(`(function() {
		var target = document.querySelector(%q);
		if (target) {
			target.scrollIntoView({behavior: "instant", block: "end"});
		} else {
			window.scrollBy(0, 800);
		}
		return document.body.scrollHeight;
	})()`, l.targetSelector)

	var lastHeight int64 = -1
	for i := 0; i < l.maxScrolls; i++ {
		var height int64
		if err := chromedp.Run(ctx, chromedp.Evaluate(scrollScript, &height)); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %s while scrolling", ErrTimeout, url)
			}
			return "", fmt.Errorf("%w: %s: scroll failed: %v", ErrContentNotLoaded, url, err)
		}

		if err := chromedp.Run(ctx, chromedp.Sleep(l.scrollDelay)); err != nil {
			return "", fmt.Errorf("%w: %s while scrolling", ErrTimeout, url)
		}

		var grown int64
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &grown)); err != nil {
			return "", fmt.Errorf("%w: %s: scroll check failed: %v", ErrContentNotLoaded, url, err)
		}

		// Document stopped growing: everything is rendered.
		if grown == height && height == lastHeight {
			break
		}
		lastHeight = grown
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrContentNotLoaded, url, err)
	}

	return html, nil
}
