package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the gallery scraper
type Config struct {
	// Target site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Scroll loop settings
	Scroll ScrollConfig `yaml:"scroll" json:"scroll"`

	// Image download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration for image fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// CSS selector set for the target site's markup
	Selectors SelectorSet `yaml:"selectors" json:"selectors"`
}

// SiteConfig holds target-site specific configuration
type SiteConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	TargetFile string `yaml:"target_file" json:"target_file"`
	CookieFile string `yaml:"cookie_file" json:"cookie_file"`
	Proxy      string `yaml:"proxy" json:"proxy"`
	UserAgent  string `yaml:"user_agent" json:"user_agent"`
}

// BrowserConfig holds headless browser configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
}

// ScrollConfig holds scroll-and-extract loop configuration
type ScrollConfig struct {
	MaxAttempts         int           `yaml:"max_attempts" json:"max_attempts"`
	Pause               time.Duration `yaml:"pause" json:"pause"`
	NoNewContentTimeout time.Duration `yaml:"no_new_content_timeout" json:"no_new_content_timeout"`
}

// DownloadConfig holds image download configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	ImageDirectory      string        `yaml:"image_directory" json:"image_directory"`
	DefaultExtension    string        `yaml:"default_extension" json:"default_extension"`
	URLCacheSize        int           `yaml:"url_cache_size" json:"url_cache_size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for image fetches
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// OutputConfig holds output artifact configuration
type OutputConfig struct {
	ResultsDirectory string `yaml:"results_directory" json:"results_directory"`
	LogDirectory     string `yaml:"log_directory" json:"log_directory"`
	HistoryFile      string `yaml:"history_file" json:"history_file"`
	OpenOnExit       bool   `yaml:"open_on_exit" json:"open_on_exit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// SelectorSet is the versioned collection of CSS selectors that locate the
// gallery's DOM structure. The target markup is unstable; when it drifts,
// this set is updated in configuration rather than in code.
type SelectorSet struct {
	Version       string `yaml:"version" json:"version"`
	Container     string `yaml:"container" json:"container"`
	Unit          string `yaml:"unit" json:"unit"`
	ButtonGroup   string `yaml:"button_group" json:"button_group"`
	ButtonLabel   string `yaml:"button_label" json:"button_label"`
	ButtonBadge   string `yaml:"button_badge" json:"button_badge"`
	ButtonIcon    string `yaml:"button_icon" json:"button_icon"`
	TipClass      string `yaml:"tip_class" json:"tip_class"`
	KeywordInput  string `yaml:"keyword_input" json:"keyword_input"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:    "https://civitai.com",
			TargetFile: "urlTarget.txt",
			CookieFile: "cookies.json",
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 60 * time.Second,
			ViewportWidth:     2560,
			ViewportHeight:    1440,
		},
		Scroll: ScrollConfig{
			MaxAttempts:         50,
			Pause:               50 * time.Millisecond,
			NoNewContentTimeout: 20 * time.Second,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 3,
			DownloadTimeout:     30 * time.Second,
			ImageDirectory:      "images/downloaded_images",
			DefaultExtension:    "jpg",
			URLCacheSize:        4096,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		Output: OutputConfig{
			ResultsDirectory: "results",
			LogDirectory:     "logs",
			HistoryFile:      "download_history.json",
			OpenOnExit:       false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Selectors: DefaultSelectors(),
	}
}

// DefaultSelectors returns the selector set matching the gallery markup as
// last observed. Class lists are fragile; keep them current via config.
func DefaultSelectors() SelectorSet {
	return SelectorSet{
		Version:      "2024-06",
		Container:    "div.mx-auto.flex.justify-center.gap-4",
		Unit:         "div.relative.flex.overflow-hidden.rounded-md.border-gray-3.bg-gray-0.shadow-gray-4.flex-col.border",
		ButtonGroup:  "div.flex.items-center.justify-center.gap-1.justify-between.p-2",
		ButtonLabel:  "span.mantine-Button-label",
		ButtonBadge:  "span.mantine-Badge-inner",
		ButtonIcon:   "div.mantine-Text-root",
		TipClass:     "mantine-1qn9423",
		KeywordInput: "header input",
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if proxy := os.Getenv("GALLERYSCRAPER_PROXY"); proxy != "" {
		c.Site.Proxy = proxy
	}
	if targetFile := os.Getenv("GALLERYSCRAPER_TARGET_FILE"); targetFile != "" {
		c.Site.TargetFile = targetFile
	}
	if cookieFile := os.Getenv("GALLERYSCRAPER_COOKIE_FILE"); cookieFile != "" {
		c.Site.CookieFile = cookieFile
	}
	if imageDir := os.Getenv("GALLERYSCRAPER_IMAGE_DIR"); imageDir != "" {
		c.Download.ImageDirectory = imageDir
	}
	if resultsDir := os.Getenv("GALLERYSCRAPER_RESULTS_DIR"); resultsDir != "" {
		c.Output.ResultsDirectory = resultsDir
	}
	if concurrent := os.Getenv("GALLERYSCRAPER_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if headless := os.Getenv("GALLERYSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}
	if logLevel := os.Getenv("GALLERYSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".galleryscraper.yaml",
		".galleryscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "galleryscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "galleryscraper", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.TargetFile == "" {
		errs = append(errs, errors.New("target URL file is required"))
	}
	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}

	if c.Scroll.MaxAttempts <= 0 {
		errs = append(errs, errors.New("scroll max attempts must be positive"))
	}
	if c.Scroll.NoNewContentTimeout <= 0 {
		errs = append(errs, errors.New("no-new-content timeout must be positive"))
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.ImageDirectory == "" {
		errs = append(errs, errors.New("image directory is required"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.ResultsDirectory == "" {
		errs = append(errs, errors.New("results directory is required"))
	}
	if c.Output.HistoryFile == "" {
		errs = append(errs, errors.New("history file is required"))
	}

	if c.Selectors.Container == "" || c.Selectors.Unit == "" {
		errs = append(errs, errors.New("container and unit selectors are required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if targetFile, ok := flags["targets"].(string); ok && targetFile != "" {
		c.Site.TargetFile = targetFile
	}
	if cookieFile, ok := flags["cookies"].(string); ok && cookieFile != "" {
		c.Site.CookieFile = cookieFile
	}
	if proxy, ok := flags["proxy"].(string); ok && proxy != "" {
		c.Site.Proxy = proxy
	}
	if imageDir, ok := flags["image-dir"].(string); ok && imageDir != "" {
		c.Download.ImageDirectory = imageDir
	}
	if resultsDir, ok := flags["results-dir"].(string); ok && resultsDir != "" {
		c.Output.ResultsDirectory = resultsDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if openOnExit, ok := flags["open-on-exit"].(bool); ok {
		c.Output.OpenOnExit = openOnExit
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".galleryscraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
