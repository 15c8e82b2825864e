package scraper

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"galleryscraper/internal/downloader"
	"galleryscraper/pkg/config"
	"galleryscraper/pkg/logger"
)

// staticPage always serves the same rendered HTML
type staticPage struct {
	html string
}

func (p *staticPage) ScrollToBottom() error { return nil }
func (p *staticPage) HTML() (string, error) { return p.html, nil }

// growingPage adds one unit per capture, simulating an infinite feed
type growingPage struct {
	captures int
}

func (p *growingPage) ScrollToBottom() error { return nil }

func (p *growingPage) HTML() (string, error) {
	p.captures++
	var b strings.Builder
	b.WriteString(`<html><body><div class="gallery">`)
	for i := 0; i < p.captures; i++ {
		fmt.Fprintf(&b, `<div class="unit"><a href="/d/%d"><img src="https://cdn.example.com/%d.jpg"></a></div>`, i, i)
	}
	b.WriteString(`</div></body></html>`)
	return b.String(), nil
}

// recordingSink collects submitted jobs
type recordingSink struct {
	jobs []downloader.Job
}

func (s *recordingSink) Submit(job downloader.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

func loopTestScraper(maxAttempts int, timeout time.Duration) *Scraper {
	cfg := config.DefaultConfig()
	cfg.Scroll.MaxAttempts = maxAttempts
	cfg.Scroll.Pause = time.Millisecond
	cfg.Scroll.NoNewContentTimeout = timeout
	cfg.Selectors = config.SelectorSet{
		Container:   "div.gallery",
		Unit:        "div.unit",
		ButtonGroup: "div.buttons",
		ButtonLabel: "span.label",
		ButtonBadge: "span.badge",
		ButtonIcon:  "div.icon",
		TipClass:    "tip-button",
	}
	return &Scraper{cfg: cfg, logger: logger.GetLogger()}
}

func TestScrollLoopStopsOnStaticContent(t *testing.T) {
	s := loopTestScraper(1000, 50*time.Millisecond)
	page := &staticPage{html: `<html><body><div class="gallery">
		<div class="unit"><a href="/d/1"><img src="https://cdn.example.com/1.jpg"></a></div>
		<div class="unit"><a href="/d/2"><img src="https://cdn.example.com/2.jpg"></a></div>
	</div></body></html>`}
	sink := &recordingSink{}
	collector := NewCollector()

	done := make(chan struct{})
	go func() {
		s.scrollLoop(context.Background(), page, "https://example.com/q", "cats", collector, sink, s.logger)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Scroll loop did not stop on static content")
	}

	// The two units are extracted exactly once despite many iterations
	if collector.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", collector.Len())
	}
	if len(sink.jobs) != 2 {
		t.Errorf("Expected 2 queued downloads, got %d", len(sink.jobs))
	}

	records := collector.Records()
	if records[0].Keyword != "cats" {
		t.Errorf("Expected keyword on record, got %q", records[0].Keyword)
	}
	if records[0].SearchURL != "https://example.com/q" {
		t.Errorf("Expected search URL on record, got %q", records[0].SearchURL)
	}
}

func TestScrollLoopStopsAtAttemptCap(t *testing.T) {
	s := loopTestScraper(5, time.Hour)
	page := &growingPage{}
	sink := &recordingSink{}
	collector := NewCollector()

	lastHTML := s.scrollLoop(context.Background(), page, "https://example.com/q", "N/A", collector, sink, s.logger)

	// The feed grows forever, so the cap is what ends the loop
	if page.captures != 5 {
		t.Errorf("Expected 5 captures, got %d", page.captures)
	}
	if collector.Len() != 5 {
		t.Errorf("Expected 5 records, got %d", collector.Len())
	}
	if lastHTML == "" {
		t.Error("Expected the last captured HTML to be returned")
	}
}

func TestScrollLoopCancelled(t *testing.T) {
	s := loopTestScraper(1000, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := NewCollector()
	s.scrollLoop(ctx, &growingPage{}, "https://example.com/q", "N/A", collector, &recordingSink{}, s.logger)

	if collector.Len() != 0 {
		t.Errorf("Expected no records after pre-cancelled context, got %d", collector.Len())
	}
}

func TestScrollLoopMissingContainer(t *testing.T) {
	s := loopTestScraper(3, 5*time.Millisecond)
	page := &staticPage{html: `<html><body><p>no gallery here</p></body></html>`}
	collector := NewCollector()

	s.scrollLoop(context.Background(), page, "https://example.com/q", "N/A", collector, &recordingSink{}, s.logger)

	if collector.Len() != 0 {
		t.Errorf("Expected no records without a container, got %d", collector.Len())
	}
}

func TestFileHyperlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX path form")
	}
	link := FileHyperlink("/images/abc.jpg")
	if link != "file:///images/abc.jpg" {
		t.Errorf("Expected file:///images/abc.jpg, got %s", link)
	}
}
