package dom

import (
	"strings"
	"testing"

	"galleryscraper/pkg/config"
)

func testSelectors() config.SelectorSet {
	return config.SelectorSet{
		Container:   "div.gallery",
		Unit:        "div.unit",
		ButtonGroup: "div.buttons",
	}
}

const analyzePage = `<html><body>
<div class="gallery">
  <div class="unit">
    <a href="/images/1"><img src="https://cdn.example.com/1.jpg"></a>
    <div class="buttons"><button>x</button></div>
  </div>
  <div class="unit">
    <a href="/images/2"><img src="https://cdn.example.com/2.jpg"></a>
    <div class="buttons"><button>y</button></div>
  </div>
</div>
</body></html>`

func TestAnalyze(t *testing.T) {
	report := Analyze("https://example.com/q", analyzePage, testSelectors())

	if len(report.Errors) != 0 {
		t.Fatalf("Expected no errors, got %v", report.Errors)
	}
	if len(report.UnitPaths) != 2 {
		t.Fatalf("Expected 2 unit paths, got %d", len(report.UnitPaths))
	}
	if len(report.ImagePaths) != 2 || len(report.ButtonGroupPaths) != 2 {
		t.Fatalf("Expected 2 image and 2 button group paths, got %d and %d",
			len(report.ImagePaths), len(report.ButtonGroupPaths))
	}

	// Both units sit directly under the container with different indices,
	// so the common prefix is empty
	if report.UnitPaths[0] != "div(1)" || report.UnitPaths[1] != "div(2)" {
		t.Errorf("Unexpected unit paths: %v", report.UnitPaths)
	}
	if report.CommonUnitPath != "" {
		t.Errorf("Expected empty common unit path, got %q", report.CommonUnitPath)
	}

	// Image and button group structure repeats, so their prefixes are full paths
	if report.CommonImagePath != "a > img" {
		t.Errorf("Expected common image path 'a > img', got %q", report.CommonImagePath)
	}
	if !strings.Contains(report.CommonButtonGroupPath, "div") {
		t.Errorf("Expected common button group path under div, got %q", report.CommonButtonGroupPath)
	}
}

func TestAnalyzeMissingContainer(t *testing.T) {
	report := Analyze("https://example.com/q", `<html><body><p>nothing</p></body></html>`, testSelectors())

	if len(report.Errors) == 0 {
		t.Fatal("Expected an error for missing container")
	}
	if !strings.Contains(report.Errors[0], "div.gallery") {
		t.Errorf("Expected error to name the selector, got %q", report.Errors[0])
	}
}

func TestAnalyzeNoUnits(t *testing.T) {
	report := Analyze("https://example.com/q", `<html><body><div class="gallery"></div></body></html>`, testSelectors())

	if len(report.Errors) == 0 {
		t.Fatal("Expected an error for missing units")
	}
	if len(report.UnitPaths) != 0 {
		t.Errorf("Expected no unit paths, got %v", report.UnitPaths)
	}
}

func TestAnalyzeEmptyHTML(t *testing.T) {
	report := Analyze("https://example.com/q", "", testSelectors())
	if len(report.Errors) == 0 {
		t.Fatal("Expected an error for empty HTML")
	}
}
