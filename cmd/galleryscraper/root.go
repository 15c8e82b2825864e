package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "galleryscraper",
	Short: "Scrape an image gallery site into a spreadsheet with deduplicated downloads",
	Long: `Gallery Scraper drives a headless browser through a list of gallery search
pages, scrolls until the feed stops producing new content, and collects every
image unit it sees: thumbnail URL, detail link, and per-category engagement
counts.

Thumbnails are downloaded concurrently and deduplicated by content hash, so an
image seen on an earlier run is never stored twice. Each run produces a
timestamped results workbook, a structure-analysis workbook describing where
the units sit in the page's DOM, and a plain-text run log.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .galleryscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`Gallery Scraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
