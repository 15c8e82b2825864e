// Package browser wraps chromedp with the small surface the scroll loop
// needs: one shared browser process, one tab per target URL.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"galleryscraper/pkg/config"
	"galleryscraper/pkg/logger"
)

// Session owns the browser process shared by all page tabs
type Session struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	navTimeout    time.Duration
	logger        logger.Logger
}

// NewSession launches the browser and verifies it is responsive
func NewSession(parent context.Context, cfg *config.Config) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight),
	)
	if cfg.Site.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Site.UserAgent))
	}
	if cfg.Site.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Site.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Session{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		navTimeout:    cfg.Browser.NavigationTimeout,
		logger:        logger.GetLogger(),
	}, nil
}

// Close shuts the browser down
func (s *Session) Close() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Page is one browser tab
type Page struct {
	ctx        context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// NewPage opens a new tab in the session's browser
func (s *Session) NewPage() *Page {
	ctx, cancel := chromedp.NewContext(s.browserCtx)
	return &Page{
		ctx:        ctx,
		cancel:     cancel,
		navTimeout: s.navTimeout,
	}
}

// Close closes the tab
func (p *Page) Close() {
	p.cancel()
}

// Navigate loads the target URL, bounded by the navigation timeout
func (p *Page) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// ScrollToBottom triggers a scroll to the bottom of the document so the page
// lazy-loads the next batch of content
func (p *Page) ScrollToBottom() error {
	return chromedp.Run(p.ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
}

// HTML serializes the current rendered document
func (p *Page) HTML() (string, error) {
	var content string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &content)); err != nil {
		return "", fmt.Errorf("failed to capture page HTML: %w", err)
	}
	return content, nil
}

// InputValue reads the current value of the first element matching selector,
// or "" when the element is absent
func (p *Page) InputValue(selector string) (string, error) {
	var value string
	script := fmt.Sprintf(`(function() {
		var el = document.querySelector(%q);
		return el && el.value ? el.value : "";
	})()`, selector)
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &value)); err != nil {
		return "", fmt.Errorf("failed to read input value: %w", err)
	}
	return value, nil
}
