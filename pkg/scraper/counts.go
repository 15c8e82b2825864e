package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"galleryscraper/pkg/config"
	"galleryscraper/pkg/models"
)

// trailingCount matches the numeric tail of a button's text, e.g. the
// "12,111" in "👍 12,111" or the "1.2K" in "❤️ 1.2K".
var trailingCount = regexp.MustCompile(`([\d,]+(?:\.\d+)?[KM]?)$`)

// Counts holds the five engagement counts of one unit. A category whose
// button never matched stays at models.CountNotAvailable.
type Counts struct {
	Likes  int
	Loves  int
	Laughs int
	Sads   int
	Tips   int
}

func notAvailableCounts() Counts {
	return Counts{
		Likes:  models.CountNotAvailable,
		Loves:  models.CountNotAvailable,
		Laughs: models.CountNotAvailable,
		Sads:   models.CountNotAvailable,
		Tips:   models.CountNotAvailable,
	}
}

// ParseCount normalizes a displayed count: thousands separators are stripped
// and trailing K/M suffixes multiply by 1e3/1e6 with the fraction truncated.
// Absent or non-numeric text yields zero.
func ParseCount(text string) int {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return 0
	}

	if strings.Contains(text, "K") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "K", ""), 64)
		if err != nil {
			return 0
		}
		return int(f * 1000)
	}
	if strings.Contains(text, "M") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "M", ""), 64)
		if err != nil {
			return 0
		}
		return int(f * 1000000)
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

// extractCounts reads the five button counts from one unit's button group.
// Each button's count text lives in the label span, except the tip button
// whose count sits in a badge span instead.
func extractCounts(unit *goquery.Selection, sel config.SelectorSet) Counts {
	counts := notAvailableCounts()

	group := unit.Find(sel.ButtonGroup).First()
	if group.Length() == 0 {
		return counts
	}

	group.Find("button").Each(func(_ int, btn *goquery.Selection) {
		value := buttonCount(btn, sel)

		if icon := btn.Find(sel.ButtonIcon).First(); icon.Length() > 0 {
			switch strings.TrimSpace(icon.Text()) {
			case "👍":
				counts.Likes = value
			case "❤️":
				counts.Loves = value
			case "😂":
				counts.Laughs = value
			case "😢":
				counts.Sads = value
			}
		}

		// The tip button carries no emoji glyph, only its class
		if sel.TipClass != "" && btn.HasClass(sel.TipClass) {
			counts.Tips = value
		}
	})

	return counts
}

// buttonCount pulls the displayed count from a button, checking the label
// span first and the badge span (tip variant) second.
func buttonCount(btn *goquery.Selection, sel config.SelectorSet) int {
	value := 0

	if label := btn.Find(sel.ButtonLabel).First(); label.Length() > 0 {
		if m := trailingCount.FindString(strings.TrimSpace(label.Text())); m != "" {
			value = ParseCount(m)
		} else if parent := label.Parent(); parent.Length() > 0 {
			// Some variants render the number as a sibling text node of the
			// label rather than inside it
			if m := trailingCount.FindString(strings.TrimSpace(parent.Text())); m != "" {
				value = ParseCount(m)
			}
		}
	}

	if badge := btn.Find(sel.ButtonBadge).First(); badge.Length() > 0 {
		if m := trailingCount.FindString(strings.TrimSpace(badge.Text())); m != "" {
			value = ParseCount(m)
		}
	}

	return value
}
