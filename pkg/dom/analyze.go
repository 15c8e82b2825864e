package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"galleryscraper/pkg/config"
)

// StructureReport summarizes the structural analysis of one rendered page:
// where the image-comment units sit under the content container, and where
// the image and button group sit within each unit.
type StructureReport struct {
	SourceURL string

	CommonUnitPath        string
	CommonImagePath       string
	CommonButtonGroupPath string

	UnitPaths        []string
	ImagePaths       []string
	ButtonGroupPaths []string

	Errors []string
}

// Analyze parses the rendered HTML and computes unit, image, and button-group
// paths plus their common prefixes. Missing containers or units are recorded
// as report errors, never returned as Go errors: analysis is best effort.
func Analyze(sourceURL, pageHTML string, sel config.SelectorSet) *StructureReport {
	report := &StructureReport{SourceURL: sourceURL}

	if pageHTML == "" {
		report.Errors = append(report.Errors, "no page HTML captured for analysis")
		return report
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("failed to parse page HTML: %v", err))
		return report
	}

	container := doc.Find(sel.Container).First()
	if container.Length() == 0 {
		report.Errors = append(report.Errors,
			fmt.Sprintf("ancestor element not found with selector: %s", sel.Container))
		return report
	}
	containerNode := container.Nodes[0]

	units := container.Find(sel.Unit)
	if units.Length() == 0 {
		report.Errors = append(report.Errors,
			fmt.Sprintf("no image-comment units found with selector: %s", sel.Unit))
	}

	units.Each(func(_ int, unit *goquery.Selection) {
		unitNode := unit.Nodes[0]
		report.UnitPaths = append(report.UnitPaths, ElementPath(unitNode, containerNode))

		if img := unit.Find("img").First(); img.Length() > 0 {
			report.ImagePaths = append(report.ImagePaths, ElementPath(img.Nodes[0], unitNode))
		}

		if group := unit.Find(sel.ButtonGroup).First(); group.Length() > 0 {
			report.ButtonGroupPaths = append(report.ButtonGroupPaths, ElementPath(group.Nodes[0], unitNode))
		}
	})

	report.CommonUnitPath = CommonPrefix(report.UnitPaths)
	report.CommonImagePath = CommonPrefix(report.ImagePaths)
	report.CommonButtonGroupPath = CommonPrefix(report.ButtonGroupPaths)

	return report
}
