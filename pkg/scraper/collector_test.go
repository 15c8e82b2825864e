package scraper

import (
	"sync"
	"testing"

	"galleryscraper/pkg/models"
)

func TestCollectorAppendAndSetLocal(t *testing.T) {
	c := NewCollector()

	idx0 := c.Append(models.Record{ThumbnailURL: "https://cdn/1.jpg"})
	idx1 := c.Append(models.Record{ThumbnailURL: "https://cdn/2.jpg"})
	if idx0 != 0 || idx1 != 1 {
		t.Fatalf("Expected indices 0 and 1, got %d and %d", idx0, idx1)
	}

	c.SetLocal(idx1, "/images/abc.jpg", "file:///images/abc.jpg")

	records := c.Records()
	if records[0].LocalPath != "" {
		t.Errorf("Record 0 should have no local path, got %s", records[0].LocalPath)
	}
	if records[1].LocalPath != "/images/abc.jpg" {
		t.Errorf("Record 1 local path: got %s", records[1].LocalPath)
	}
	if records[1].LocalHyperlink != "file:///images/abc.jpg" {
		t.Errorf("Record 1 hyperlink: got %s", records[1].LocalHyperlink)
	}
}

func TestCollectorSetLocalOutOfRange(t *testing.T) {
	c := NewCollector()
	c.Append(models.Record{})

	// Out-of-range updates are ignored, not panics
	c.SetLocal(-1, "/x", "file:///x")
	c.SetLocal(5, "/x", "file:///x")

	if c.Records()[0].LocalPath != "" {
		t.Error("Out-of-range SetLocal must not touch existing records")
	}
}

func TestCollectorRecordsIsSnapshot(t *testing.T) {
	c := NewCollector()
	c.Append(models.Record{Keyword: "original"})

	snapshot := c.Records()
	snapshot[0].Keyword = "mutated"

	if c.Records()[0].Keyword != "original" {
		t.Error("Mutating the snapshot must not affect the collector")
	}
}

func TestCollectorConcurrentAppend(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append(models.Record{})
		}()
	}
	wg.Wait()

	if c.Len() != 100 {
		t.Errorf("Expected 100 records after concurrent appends, got %d", c.Len())
	}
}
