// Package fetcher downloads image bytes, deduplicates them by content hash,
// and stores each unique payload exactly once under the image directory.
package fetcher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"galleryscraper/pkg/config"
	errs "galleryscraper/pkg/errors"
	"galleryscraper/pkg/history"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/ratelimit"
	"galleryscraper/pkg/retry"
)

// maxImageSize caps how much of a response body is read
const maxImageSize = 64 << 20 // 64 MiB

// Result is the outcome of fetching one image URL. A zero Result means "no
// result": the URL was unusable and the caller proceeds with empty fields.
type Result struct {
	Path string
	Hash string
}

// Fetcher downloads images with retry, rate limiting, and content-hash
// deduplication against the shared history store. Thumbnail URLs repeat
// across scroll iterations, so resolved URLs are also cached in-process.
type Fetcher struct {
	client     *http.Client
	history    *history.Store
	limiter    ratelimit.Limiter
	urlCache   *lru.Cache[string, Result]
	imageDir   string
	defaultExt string
	maxRetries int
	baseDelay  retry.BackoffStrategy
	logger     logger.Logger
}

// New creates a fetcher from the download, rate-limit, and retry sections of
// the configuration. The image directory is created up front.
func New(cfg *config.Config, hist *history.Store) (*Fetcher, error) {
	transport := &http.Transport{}
	if cfg.Site.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Site.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Site.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	cacheSize := cfg.Download.URLCacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	urlCache, err := lru.New[string, Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create URL cache: %w", err)
	}

	if err := os.MkdirAll(cfg.Download.ImageDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.Download.DownloadTimeout,
			Transport: transport,
		},
		history:  hist,
		limiter:  ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		urlCache: urlCache,
		imageDir: cfg.Download.ImageDirectory,
		defaultExt: func() string {
			if cfg.Download.DefaultExtension != "" {
				return cfg.Download.DefaultExtension
			}
			return "jpg"
		}(),
		maxRetries: cfg.Retry.MaxAttempts,
		baseDelay: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		logger: logger.GetLogger(),
	}, nil
}

// Fetch downloads the image at imageURL. Empty or non-HTTP URLs yield a zero
// Result and no error. If the downloaded bytes hash to a known entry, the
// previously recorded path is returned without writing anything.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (Result, error) {
	if imageURL == "" {
		f.logger.Warn("Empty image URL skipped")
		return Result{}, nil
	}
	if !strings.HasPrefix(imageURL, "http") {
		f.logger.WithField("url", truncate(imageURL, 100)).Warn("Unsupported image URL scheme skipped")
		return Result{}, nil
	}

	if cached, ok := f.urlCache.Get(imageURL); ok {
		return cached, nil
	}

	if !f.limiter.Allow() {
		f.limiter.Wait()
	}

	var body []byte
	err := retry.Do(func() error {
		var fetchErr error
		body, fetchErr = f.get(ctx, imageURL)
		return fetchErr
	}, &retry.Config{
		MaxAttempts: f.maxRetries,
		Backoff:     f.baseDelay,
		Context:     ctx,
		Logger:      f.logger,
	})
	if err != nil {
		return Result{}, err
	}

	sum := md5.Sum(body)
	hash := hex.EncodeToString(sum[:])

	if existing, ok := f.history.Lookup(hash); ok {
		f.logger.DebugWithFields("Image content already downloaded", map[string]interface{}{
			"hash": hash,
			"path": existing,
		})
		result := Result{Path: existing, Hash: hash}
		f.urlCache.Add(imageURL, result)
		return result, nil
	}

	dest := filepath.Join(f.imageDir, hash+"."+extensionFromURL(imageURL, f.defaultExt))
	if err := writeAtomic(dest, body); err != nil {
		return Result{}, &errs.Error{Type: errs.ErrorTypeStorage, Message: err.Error()}
	}

	// The name is derived from the hash, so a concurrent fetch of identical
	// new content lands on the same file; whoever records first wins.
	path, claimed := f.history.RecordIfAbsent(hash, dest)
	if !claimed && path != dest {
		os.Remove(dest)
	}

	result := Result{Path: path, Hash: hash}
	f.urlCache.Add(imageURL, result)

	if claimed {
		f.logger.InfoWithFields("Image downloaded", map[string]interface{}{
			"url":  imageURL,
			"path": path,
			"size": len(body),
		})
	}
	return result, nil
}

// get performs a single GET and returns the body, typing failures so the
// retry predicate can tell transient errors from permanent ones.
func (f *Fetcher) get(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeParsing, Message: err.Error()}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeFetch, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errType := errs.ErrorTypeFetch
		if !errs.IsRetryableStatusCode(resp.StatusCode) {
			errType = errs.ErrorTypeParsing
		} else if resp.StatusCode >= 500 {
			errType = errs.ErrorTypeServer
		}
		return nil, &errs.Error{
			Type:    errType,
			Message: fmt.Sprintf("unexpected status fetching %s", imageURL),
			Code:    resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeFetch, Message: err.Error()}
	}
	return body, nil
}

// extensionFromURL derives a file extension from the URL path, ignoring the
// query string. Anything absent, too long, or non-alphabetic falls back.
func extensionFromURL(imageURL, fallback string) string {
	withoutQuery := imageURL
	if idx := strings.IndexByte(withoutQuery, '?'); idx >= 0 {
		withoutQuery = withoutQuery[:idx]
	}

	idx := strings.LastIndexByte(withoutQuery, '.')
	if idx < 0 || idx == len(withoutQuery)-1 {
		return fallback
	}
	ext := strings.ToLower(withoutQuery[idx+1:])
	if len(ext) > 5 || !isAlpha(ext) {
		return fallback
	}
	return ext
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// writeAtomic writes data via a temp file and rename
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
