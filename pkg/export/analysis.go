package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"galleryscraper/pkg/dom"
)

const analysisSheet = "Structure"

var analysisHeaders = []string{
	"Source URL",
	"Common Unit Path",
	"Common Image Path",
	"Common Button Group Path",
	"Units",
	"Errors",
}

// WriteAnalysis writes one row per analyzed page into a structure-analysis
// workbook at path
func WriteAnalysis(path string, reports []*dom.StructureReport) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), analysisSheet)

	for col, header := range analysisHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(analysisSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	widths := make([]int, len(analysisHeaders))
	for i, h := range analysisHeaders {
		widths[i] = len(h)
	}

	for i, report := range reports {
		row := i + 2
		values := []string{
			report.SourceURL,
			report.CommonUnitPath,
			report.CommonImagePath,
			report.CommonButtonGroupPath,
			fmt.Sprintf("%d", len(report.UnitPaths)),
			strings.Join(report.Errors, "; "),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(analysisSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
	}

	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		w := float64(width+2) * 1.2
		if w > 100 {
			w = 100
		}
		f.SetColWidth(analysisSheet, name, name, w)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save analysis workbook: %w", err)
	}
	return nil
}

// WriteAnalysisLog writes the full per-unit path listing, which is too
// verbose for the workbook, into a plain-text companion file
func WriteAnalysisLog(path string, reports []*dom.StructureReport) error {
	var b strings.Builder

	for _, report := range reports {
		fmt.Fprintf(&b, "=== %s ===\n", report.SourceURL)
		fmt.Fprintf(&b, "common unit path:         %s\n", report.CommonUnitPath)
		fmt.Fprintf(&b, "common image path:        %s\n", report.CommonImagePath)
		fmt.Fprintf(&b, "common button group path: %s\n", report.CommonButtonGroupPath)

		for _, err := range report.Errors {
			fmt.Fprintf(&b, "error: %s\n", err)
		}

		writePathSection(&b, "unit paths", report.UnitPaths)
		writePathSection(&b, "image paths", report.ImagePaths)
		writePathSection(&b, "button group paths", report.ButtonGroupPaths)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write analysis log: %w", err)
	}
	return nil
}

func writePathSection(b *strings.Builder, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(paths))
	for i, p := range paths {
		fmt.Fprintf(b, "  [%d] %s\n", i+1, p)
	}
}

// AnalysisFilename builds the timestamped analysis workbook name
func AnalysisFilename(t time.Time) string {
	return fmt.Sprintf("element_analysis_%s.xlsx", t.Format("20060102_150405"))
}

// AnalysisLogFilename builds the timestamped analysis text log name
func AnalysisLogFilename(t time.Time) string {
	return fmt.Sprintf("element_analysis_%s.txt", t.Format("20060102_150405"))
}
