package scraper

import (
	"sync"

	"galleryscraper/pkg/models"
)

// Collector is the run-wide record collection shared by all target tasks and
// the download result processor. Appends and updates are serialized so
// interleaved writers never lose records.
type Collector struct {
	mu      sync.Mutex
	records []models.Record
}

// NewCollector returns an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Append adds a record and returns its index for later local-path updates
func (c *Collector) Append(rec models.Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return len(c.records) - 1
}

// SetLocal fills in the local path fields of the record at idx once its
// thumbnail download has finished
func (c *Collector) SetLocal(idx int, path, hyperlink string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= len(c.records) {
		return
	}
	c.records[idx].LocalPath = path
	c.records[idx].LocalHyperlink = hyperlink
}

// Records returns a snapshot copy of the collected records
func (c *Collector) Records() []models.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of collected records
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
