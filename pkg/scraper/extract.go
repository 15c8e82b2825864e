package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"galleryscraper/pkg/config"
)

// extractedUnit is one image-comment unit pulled from a rendered page
type extractedUnit struct {
	ThumbnailURL string
	DetailURL    string
	Counts       Counts
}

// dedupKey identifies a unit within a run
func (u extractedUnit) dedupKey() string {
	return u.ThumbnailURL + "|" + u.DetailURL
}

// extractUnits locates the content container and pulls every candidate unit
// from it. Units without a usable image URL are skipped. containerFound is
// false when the container selector matched nothing, which the loop treats
// as a warning, not a failure.
func extractUnits(doc *goquery.Document, sel config.SelectorSet, baseURL string) (units []extractedUnit, containerFound bool) {
	container := doc.Find(sel.Container).First()
	if container.Length() == 0 {
		return nil, false
	}

	container.Find(sel.Unit).Each(func(_ int, unit *goquery.Selection) {
		img := unit.Find("img").First()
		if img.Length() == 0 {
			return
		}

		thumbURL := img.AttrOr("src", "")
		if !strings.HasPrefix(thumbURL, "http") {
			return
		}

		detailURL := ""
		if anchor := img.ParentsFiltered("a").First(); anchor.Length() > 0 {
			detailURL = anchor.AttrOr("href", "")
		}
		if detailURL != "" && !strings.HasPrefix(detailURL, "http") {
			detailURL = strings.TrimSuffix(baseURL, "/") + detailURL
		}

		units = append(units, extractedUnit{
			ThumbnailURL: thumbURL,
			DetailURL:    detailURL,
			Counts:       extractCounts(unit, sel),
		})
	})

	return units, true
}
