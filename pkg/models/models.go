package models

import "time"

// CountNotAvailable marks an engagement count whose button never matched a
// known category for a given unit.
const CountNotAvailable = -1

// Record is one scraped gallery unit: a thumbnail, its detail page, and the
// engagement counts read from the five reaction buttons. A record is created
// once per unique (thumbnail URL, detail URL) pair within a run and is not
// mutated after the download result fills in the local path fields.
type Record struct {
	CapturedAt     time.Time
	SearchURL      string
	ThumbnailURL   string
	LocalPath      string
	LocalHyperlink string
	DetailURL      string
	Likes          int
	Loves          int
	Laughs         int
	Sads           int
	Tips           int
	Keyword        string
}

// PageSample is the last rendered HTML captured by one target's scroll loop,
// kept for the element-structure analysis step. One sample per target.
type PageSample struct {
	SourceURL string
	HTML      string
}
