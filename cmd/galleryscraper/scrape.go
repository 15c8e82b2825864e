package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"galleryscraper/pkg/browser"
	"galleryscraper/pkg/config"
	"galleryscraper/pkg/dom"
	"galleryscraper/pkg/export"
	"galleryscraper/pkg/history"
	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/scraper"
	"galleryscraper/pkg/targets"
)

var (
	// Scrape command flags
	targetFile string
	cookieFile string
	proxy      string
	imageDir   string
	resultsDir string
	concurrent int
	headless   bool
	openOnExit bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape all target URLs and export the results",
	Long: `Scrape every URL listed in the target file.

Each target page is opened in its own browser tab and scrolled until either
the scroll attempt cap is reached or no new content has appeared for the
configured timeout. Thumbnails are downloaded as the pages scroll, and the
run ends with a results workbook, a structure-analysis workbook, and the
updated download history.`,
	Example: `  # Scrape using default settings (urlTarget.txt, cookies.json)
  galleryscraper scrape

  # Custom target list and visible browser window
  galleryscraper scrape --targets mytargets.txt --headless=false

  # More download workers, open the workbook when done
  galleryscraper scrape --concurrent 8 --open-on-exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape()
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&targetFile, "targets", "t", "", "file of target URLs, one per line")
	scrapeCmd.Flags().StringVar(&cookieFile, "cookies", "", "browser-export JSON cookie file")
	scrapeCmd.Flags().StringVar(&proxy, "proxy", "", "proxy server URL for the browser and downloads")
	scrapeCmd.Flags().StringVar(&imageDir, "image-dir", "", "directory for downloaded thumbnails")
	scrapeCmd.Flags().StringVar(&resultsDir, "results-dir", "", "directory for the output workbooks")
	scrapeCmd.Flags().IntVar(&concurrent, "concurrent", 0, "number of concurrent downloads")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	scrapeCmd.Flags().BoolVar(&openOnExit, "open-on-exit", false, "open the results workbook when the run finishes")
}

func runScrape() error {
	start := time.Now()

	flags := make(map[string]interface{})
	if targetFile != "" {
		flags["targets"] = targetFile
	}
	if cookieFile != "" {
		flags["cookies"] = cookieFile
	}
	if proxy != "" {
		flags["proxy"] = proxy
	}
	if imageDir != "" {
		flags["image-dir"] = imageDir
	}
	if resultsDir != "" {
		flags["results-dir"] = resultsDir
	}
	if concurrent > 0 {
		flags["concurrent"] = concurrent
	}
	if !headless {
		flags["headless"] = false
	}
	if openOnExit {
		flags["open-on-exit"] = true
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.Output.ResultsDirectory, cfg.Output.LogDirectory, cfg.Download.ImageDirectory} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.Output.LogDirectory, export.LogFilename(start))
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("Gallery Scraper starting")

	urls, err := targets.Read(cfg.Site.TargetFile)
	if err != nil {
		log.WithError(err).Error("Failed to read target URLs")
		return err
	}
	log.WithField("count", len(urls)).Info("Target URLs loaded")

	hist := history.Load(cfg.Output.HistoryFile)
	log.WithField("entries", hist.Len()).Info("Download history loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := browser.NewSession(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to launch browser")
		return err
	}
	defer session.Close()

	s, err := scraper.New(cfg, session, hist)
	if err != nil {
		log.WithError(err).Error("Failed to initialize scraper")
		return err
	}

	report, err := s.Run(ctx, urls)
	if err != nil {
		log.WithError(err).Error("Scrape run failed")
		return err
	}

	// Persist the history before exporting so a failed export never loses
	// knowledge of downloaded images
	if err := hist.Save(cfg.Output.HistoryFile); err != nil {
		log.WithError(err).Error("Failed to save download history")
	}

	resultsPath := filepath.Join(cfg.Output.ResultsDirectory, export.ResultsFilename(start))
	if err := export.WriteRecords(resultsPath, report.Records); err != nil {
		log.WithError(err).Error("Failed to write results workbook")
		return err
	}
	log.WithFields(map[string]interface{}{
		"path":    resultsPath,
		"records": len(report.Records),
	}).Info("Results workbook written")

	if len(report.Samples) > 0 {
		reports := make([]*dom.StructureReport, 0, len(report.Samples))
		for _, sample := range report.Samples {
			reports = append(reports, dom.Analyze(sample.SourceURL, sample.HTML, cfg.Selectors))
		}

		analysisPath := filepath.Join(cfg.Output.ResultsDirectory, export.AnalysisFilename(start))
		if err := export.WriteAnalysis(analysisPath, reports); err != nil {
			log.WithError(err).Error("Failed to write analysis workbook")
		}
		analysisLogPath := filepath.Join(cfg.Output.ResultsDirectory, export.AnalysisLogFilename(start))
		if err := export.WriteAnalysisLog(analysisLogPath, reports); err != nil {
			log.WithError(err).Error("Failed to write analysis log")
		}
	}

	log.WithFields(map[string]interface{}{
		"records":    len(report.Records),
		"downloaded": report.Downloaded,
		"failed":     report.Failed,
		"duration":   time.Since(start).Round(time.Second).String(),
	}).Info("Run finished")

	if cfg.Output.OpenOnExit {
		for _, path := range []string{resultsPath, cfg.Logging.File} {
			if err := export.OpenFile(path); err != nil {
				log.WithError(err).WithField("path", path).Warn("Could not open output file")
			}
		}
	}

	return nil
}
