package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"galleryscraper/pkg/config"
	"galleryscraper/pkg/dom"
	"galleryscraper/pkg/export"
	"galleryscraper/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.html> [file.html...]",
	Short: "Run structure analysis on saved HTML files",
	Long: `Analyze previously saved page HTML without launching a browser.

For each file the command computes the DOM paths of the image-comment units,
their images, and their button groups relative to the content container, plus
the longest common prefix of each path set. The output is the same analysis
workbook and text log a scrape run produces.`,
	Example: `  # Analyze one saved page
  galleryscraper analyze page.html

  # Analyze several captures at once
  galleryscraper analyze captures/*.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(paths []string) error {
	start := time.Now()

	cfg, err := config.Load(configFile, map[string]interface{}{"log-level": logLevel})
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	if err := os.MkdirAll(cfg.Output.ResultsDirectory, 0o755); err != nil {
		return err
	}

	var reports []*dom.StructureReport
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		reports = append(reports, dom.Analyze(path, string(data), cfg.Selectors))
	}

	analysisPath := filepath.Join(cfg.Output.ResultsDirectory, export.AnalysisFilename(start))
	if err := export.WriteAnalysis(analysisPath, reports); err != nil {
		return err
	}
	analysisLogPath := filepath.Join(cfg.Output.ResultsDirectory, export.AnalysisLogFilename(start))
	if err := export.WriteAnalysisLog(analysisLogPath, reports); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"pages":    len(reports),
		"workbook": analysisPath,
		"log":      analysisLogPath,
	}).Info("Analysis written")
	return nil
}
