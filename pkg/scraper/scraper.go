package scraper

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"galleryscraper/internal/downloader"
	"galleryscraper/pkg/browser"
	"galleryscraper/pkg/config"
	"galleryscraper/pkg/fetcher"
	"galleryscraper/pkg/history"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/models"
)

// Page is the browser surface the scroll loop drives
type Page interface {
	ScrollToBottom() error
	HTML() (string, error)
}

// JobSink receives thumbnail download jobs queued by the scroll loops
type JobSink interface {
	Submit(downloader.Job) error
}

// Scraper orchestrates the per-target scroll-and-extract tasks, the download
// pool, and the shared record collection for one run.
type Scraper struct {
	cfg     *config.Config
	session *browser.Session
	history *history.Store
	fetcher *fetcher.Fetcher
	logger  logger.Logger
}

// RunReport is everything one run produced
type RunReport struct {
	Records    []models.Record
	Samples    []models.PageSample
	Downloaded int
	Failed     int
}

// New creates a Scraper. The fetcher shares the run's history store so every
// target task deduplicates against the same hash map.
func New(cfg *config.Config, session *browser.Session, hist *history.Store) (*Scraper, error) {
	f, err := fetcher.New(cfg, hist)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:     cfg,
		session: session,
		history: hist,
		fetcher: f,
		logger:  logger.GetLogger(),
	}, nil
}

// Run scrapes every target URL concurrently and blocks until all scroll
// loops and queued downloads have finished.
func (s *Scraper) Run(ctx context.Context, targets []string) (*RunReport, error) {
	cookies := s.loadCookies()

	collector := NewCollector()
	pool := downloader.NewWorkerPool(s.cfg.Download.ConcurrentDownloads, s.fetcher, s.logger)
	pool.Start()

	report := &RunReport{}

	var resultWG sync.WaitGroup
	resultWG.Add(1)
	go func() {
		defer resultWG.Done()
		s.processDownloadResults(pool.Results(), collector, report)
	}()

	samples := make([]models.PageSample, len(targets))
	var taskWG sync.WaitGroup
	for i, target := range targets {
		taskWG.Add(1)
		go func(i int, target string) {
			defer taskWG.Done()
			samples[i] = s.scrapeTarget(ctx, target, cookies, collector, pool)
		}(i, target)
	}
	taskWG.Wait()

	// No more jobs will be queued; drain the pool, then the processor
	pool.Stop()
	resultWG.Wait()

	report.Records = collector.Records()
	for _, sample := range samples {
		if sample.HTML != "" {
			report.Samples = append(report.Samples, sample)
		}
	}

	s.logger.InfoWithFields("Run completed", map[string]interface{}{
		"targets":    len(targets),
		"records":    len(report.Records),
		"downloaded": report.Downloaded,
		"failed":     report.Failed,
	})
	return report, nil
}

// loadCookies reads the configured cookie file. A missing or unreadable file
// means scraping proceeds without cookies.
func (s *Scraper) loadCookies() []browser.Cookie {
	path := s.cfg.Site.CookieFile
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.WithField("path", path).Warn("Cookie file not found, proceeding without cookies")
		return nil
	}

	cookies, err := browser.LoadCookies(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Error("Failed to load cookies, proceeding without them")
		return nil
	}

	s.logger.WithField("count", len(cookies)).Info("Cookies loaded")
	return cookies
}

// scrapeTarget runs the full scroll-and-extract state machine for one target
// URL and returns its last rendered HTML as the structure-analysis sample.
func (s *Scraper) scrapeTarget(ctx context.Context, target string, cookies []browser.Cookie, collector *Collector, sink JobSink) models.PageSample {
	log := s.logger.WithField("target", target)

	page := s.session.NewPage()
	defer page.Close()

	if len(cookies) > 0 {
		if err := page.SetCookies(cookies); err != nil {
			log.WithError(err).Error("Failed to set cookies")
		}
	}

	log.Info("Navigating to target")
	if err := page.Navigate(target); err != nil {
		// Navigation failure is fatal to this target only, no retry
		log.WithError(err).Error("Navigation failed, abandoning target")
		return models.PageSample{SourceURL: target}
	}

	keyword := "N/A"
	if value, err := page.InputValue(s.cfg.Selectors.KeywordInput); err != nil {
		log.WithError(err).Warn("Could not read keyword input")
	} else if value != "" {
		keyword = value
		log.WithField("keyword", keyword).Info("Found keyword in search input")
	}

	lastHTML := s.scrollLoop(ctx, page, target, keyword, collector, sink, log)

	log.Info("Target finished, page closed")
	return models.PageSample{SourceURL: target, HTML: lastHTML}
}

// scrollLoop repeatedly scrolls, re-parses the rendered page, and queues
// newly seen units. It stops at the attempt cap, or once no new units have
// appeared for the configured no-new-content window. Returns the last
// captured HTML.
func (s *Scraper) scrollLoop(ctx context.Context, page Page, target, keyword string, collector *Collector, sink JobSink, log logger.Logger) string {
	sel := s.cfg.Selectors
	seen := make(map[string]struct{})
	var lastHTML string
	var noNewSince time.Time

	for attempt := 1; attempt <= s.cfg.Scroll.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			log.Warn("Run cancelled, stopping scroll loop")
			return lastHTML
		default:
		}

		log.DebugWithFields("Scroll attempt", map[string]interface{}{
			"attempt": attempt,
			"max":     s.cfg.Scroll.MaxAttempts,
		})

		if err := page.ScrollToBottom(); err != nil {
			log.WithError(err).Warn("Scroll failed")
			continue
		}
		time.Sleep(s.cfg.Scroll.Pause)

		pageHTML, err := page.HTML()
		if err != nil {
			log.WithError(err).Warn("Failed to capture page HTML")
			continue
		}
		lastHTML = pageHTML

		// Re-parse from scratch every iteration; the seen set filters out
		// units extracted on earlier passes
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
		if err != nil {
			log.WithError(err).Warn("Failed to parse page HTML")
			continue
		}

		units, containerFound := extractUnits(doc, sel, s.cfg.Site.BaseURL)
		if !containerFound {
			log.WithField("selector", sel.Container).Warn("Main content container not found, skipping iteration")
			continue
		}

		newUnits := 0
		for _, unit := range units {
			key := unit.dedupKey()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			newUnits++

			idx := collector.Append(models.Record{
				CapturedAt:   time.Now(),
				SearchURL:    target,
				ThumbnailURL: unit.ThumbnailURL,
				DetailURL:    unit.DetailURL,
				Likes:        unit.Counts.Likes,
				Loves:        unit.Counts.Loves,
				Laughs:       unit.Counts.Laughs,
				Sads:         unit.Counts.Sads,
				Tips:         unit.Counts.Tips,
				Keyword:      keyword,
			})

			if err := sink.Submit(downloader.Job{URL: unit.ThumbnailURL, RecordIndex: idx}); err != nil {
				log.WithError(err).WithField("url", unit.ThumbnailURL).Error("Failed to queue download")
			}
		}

		if newUnits == 0 {
			if noNewSince.IsZero() {
				noNewSince = time.Now()
			} else if elapsed := time.Since(noNewSince); elapsed >= s.cfg.Scroll.NoNewContentTimeout {
				log.WithField("elapsed", elapsed).Info("No new units within timeout, stopping scroll loop")
				break
			}
		} else {
			noNewSince = time.Time{}
			log.DebugWithFields("New units extracted", map[string]interface{}{
				"new_units":   newUnits,
				"total_units": len(units),
			})
		}
	}

	return lastHTML
}

// processDownloadResults merges finished downloads into their records. A
// failed download leaves the record's local-path fields empty and the run
// moves on.
func (s *Scraper) processDownloadResults(results <-chan downloader.Result, collector *Collector, report *RunReport) {
	for result := range results {
		if result.Err != nil {
			report.Failed++
			continue
		}
		if result.Path == "" {
			// Unusable URL, already logged by the fetcher
			continue
		}

		absPath, err := filepath.Abs(result.Path)
		if err != nil {
			absPath = result.Path
		}
		collector.SetLocal(result.Job.RecordIndex, absPath, FileHyperlink(absPath))
		report.Downloaded++
	}
}

// FileHyperlink builds a file:// URI for a local path, suitable for a
// spreadsheet hyperlink cell
func FileHyperlink(absPath string) string {
	if runtime.GOOS == "windows" {
		return "file:///" + strings.ReplaceAll(absPath, `\`, "/")
	}
	return "file://" + absPath
}
