package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}
	if cfg.Site.BaseURL == "" {
		t.Error("Expected a default base URL")
	}
	if cfg.Scroll.MaxAttempts <= 0 {
		t.Error("Expected a positive scroll attempt cap")
	}
	if cfg.Download.ConcurrentDownloads <= 0 {
		t.Error("Expected positive concurrent downloads")
	}
	if cfg.Selectors.Container == "" || cfg.Selectors.Unit == "" {
		t.Error("Expected default selectors to be populated")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"missing target file", func(c *Config) { c.Site.TargetFile = "" }, false},
		{"missing base URL", func(c *Config) { c.Site.BaseURL = "" }, false},
		{"zero scroll attempts", func(c *Config) { c.Scroll.MaxAttempts = 0 }, false},
		{"zero no-new-content timeout", func(c *Config) { c.Scroll.NoNewContentTimeout = 0 }, false},
		{"zero concurrent downloads", func(c *Config) { c.Download.ConcurrentDownloads = 0 }, false},
		{"missing image directory", func(c *Config) { c.Download.ImageDirectory = "" }, false},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, false},
		{"missing container selector", func(c *Config) { c.Selectors.Container = "" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "shout" }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.valid && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
			if !test.valid && err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `site:
  base_url: https://gallery.example.com
  target_file: mytargets.txt
scroll:
  max_attempts: 7
  no_new_content_timeout: 5s
download:
  concurrent_downloads: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Site.BaseURL != "https://gallery.example.com" {
		t.Errorf("Base URL not loaded: %s", cfg.Site.BaseURL)
	}
	if cfg.Site.TargetFile != "mytargets.txt" {
		t.Errorf("Target file not loaded: %s", cfg.Site.TargetFile)
	}
	if cfg.Scroll.MaxAttempts != 7 {
		t.Errorf("Scroll attempts not loaded: %d", cfg.Scroll.MaxAttempts)
	}
	if cfg.Scroll.NoNewContentTimeout != 5*time.Second {
		t.Errorf("Timeout not loaded: %v", cfg.Scroll.NoNewContentTimeout)
	}
	if cfg.Download.ConcurrentDownloads != 8 {
		t.Errorf("Concurrent downloads not loaded: %d", cfg.Download.ConcurrentDownloads)
	}

	// Untouched sections keep their defaults
	if cfg.Output.ResultsDirectory != "results" {
		t.Errorf("Expected default results directory, got %s", cfg.Output.ResultsDirectory)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for explicitly named missing config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GALLERYSCRAPER_PROXY", "http://proxy:8080")
	t.Setenv("GALLERYSCRAPER_CONCURRENT_DOWNLOADS", "6")
	t.Setenv("GALLERYSCRAPER_HEADLESS", "false")
	t.Setenv("GALLERYSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Site.Proxy != "http://proxy:8080" {
		t.Errorf("Proxy not loaded: %s", cfg.Site.Proxy)
	}
	if cfg.Download.ConcurrentDownloads != 6 {
		t.Errorf("Concurrent downloads not loaded: %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be disabled via env")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Log level not loaded: %s", cfg.Logging.Level)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"targets":      "other.txt",
		"concurrent":   9,
		"headless":     false,
		"open-on-exit": true,
		"log-level":    "warn",
	})

	if cfg.Site.TargetFile != "other.txt" {
		t.Errorf("Target file flag not merged: %s", cfg.Site.TargetFile)
	}
	if cfg.Download.ConcurrentDownloads != 9 {
		t.Errorf("Concurrent flag not merged: %d", cfg.Download.ConcurrentDownloads)
	}
	if cfg.Browser.Headless {
		t.Error("Headless flag not merged")
	}
	if !cfg.Output.OpenOnExit {
		t.Error("Open-on-exit flag not merged")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Log level flag not merged: %s", cfg.Logging.Level)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("GALLERYSCRAPER_TARGET_FILE", "from-env.txt")

	cfg, err := Load("", map[string]interface{}{"targets": "from-flag.txt"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Site.TargetFile != "from-flag.txt" {
		t.Errorf("Expected flag to win over env, got %s", cfg.Site.TargetFile)
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scroll.MaxAttempts = 13
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Scroll.MaxAttempts != 13 {
		t.Errorf("Expected saved value to roundtrip, got %d", loaded.Scroll.MaxAttempts)
	}
}
