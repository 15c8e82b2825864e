// Package export writes the run's outputs: the results workbook, the
// structure-analysis workbook, and the plain-text analysis log.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"galleryscraper/pkg/logger"
	"galleryscraper/pkg/models"
)

const resultsSheet = "Results"

var resultHeaders = []string{
	"Capture Time",
	"Search URL",
	"Thumbnail URL",
	"Local Path",
	"Local File",
	"Detail URL",
	"Like",
	"Love",
	"Laugh",
	"Sad",
	"Tip",
	"Keyword",
}

// WriteRecords writes all collected records into a results workbook at path.
// The local-file column carries a clickable file:// hyperlink when the image
// downloaded successfully.
func WriteRecords(path string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), resultsSheet)

	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0000FF", Underline: "single"},
	})
	if err != nil {
		return fmt.Errorf("failed to create hyperlink style: %w", err)
	}

	for col, header := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	widths := make([]int, len(resultHeaders))
	for i, h := range resultHeaders {
		widths[i] = len(h)
	}

	for i, rec := range records {
		row := i + 2
		values := []string{
			rec.CapturedAt.Format("2006-01-02 15:04:05"),
			rec.SearchURL,
			rec.ThumbnailURL,
			rec.LocalPath,
			"",
			rec.DetailURL,
			renderCount(rec.Likes),
			renderCount(rec.Loves),
			renderCount(rec.Laughs),
			renderCount(rec.Sads),
			renderCount(rec.Tips),
			rec.Keyword,
		}
		if rec.LocalHyperlink != "" {
			values[4] = "Open image"
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}

		if rec.LocalHyperlink != "" {
			cell, _ := excelize.CoordinatesToCellName(5, row)
			if err := f.SetCellHyperLink(resultsSheet, cell, rec.LocalHyperlink, "External"); err != nil {
				logger.GetLogger().WithError(err).WithField("path", rec.LocalPath).Warn("Failed to set hyperlink")
			} else {
				f.SetCellStyle(resultsSheet, cell, cell, linkStyle)
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		w := float64(width+2) * 1.2
		if w > 100 {
			w = 100
		}
		f.SetColWidth(resultsSheet, name, name, w)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save results workbook: %w", err)
	}
	return nil
}

// renderCount formats an engagement count for a cell, showing N/A for
// categories whose button was never found
func renderCount(n int) string {
	if n == models.CountNotAvailable {
		return "N/A"
	}
	return strconv.Itoa(n)
}

// ResultsFilename builds the timestamped results workbook name
func ResultsFilename(t time.Time) string {
	return fmt.Sprintf("gallery_results_%s.xlsx", t.Format("20060102_150405"))
}

// LogFilename builds the timestamped run log name
func LogFilename(t time.Time) string {
	return fmt.Sprintf("scraper_log_%s.txt", t.Format("20060102_150405"))
}
