// Package history persists the mapping from image content hash to the local
// file holding those bytes. It is what guarantees that bit-identical image
// content is stored at most once per machine, no matter how many URLs serve it.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"galleryscraper/pkg/logger"
)

// Store is a mutex-guarded hash -> local path map. Entries are written once
// per new hash and never mutated. Safe for concurrent download workers.
type Store struct {
	entries map[string]string
	mu      sync.RWMutex
	logger  logger.Logger
}

// NewStore returns an empty history store
func NewStore() *Store {
	return &Store{
		entries: make(map[string]string),
		logger:  logger.GetLogger(),
	}
}

// Load reads a history file into a new store. A missing file yields an empty
// store; an unreadable or corrupt file also yields an empty store with a
// warning, since the run must proceed either way.
func Load(path string) *Store {
	s := NewStore()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", path).Info("History file not found, starting with empty history")
		} else {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to read history file, starting with empty history")
		}
		return s
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to parse history file, starting with empty history")
		s.entries = make(map[string]string)
		return s
	}

	s.logger.InfoWithFields("Download history loaded", map[string]interface{}{
		"path":    path,
		"entries": len(s.entries),
	})
	return s
}

// Lookup returns the recorded path for a content hash
func (s *Store) Lookup(hash string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.entries[hash]
	return path, ok
}

// RecordIfAbsent records hash -> path unless the hash is already present, in
// which case the existing path wins. The check and insert happen under one
// lock so concurrent fetches of identical new content agree on a single path.
func (s *Store) RecordIfAbsent(hash, path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[hash]; ok {
		return existing, false
	}
	s.entries[hash] = path
	return path, true
}

// Len returns the number of recorded entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Save writes the store to path as JSON, overwriting any previous file.
// Best effort: failures are logged by the caller, not fatal to the run.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "    ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	// Write-and-rename so a crash mid-write never clobbers the old history
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	s.logger.InfoWithFields("Download history saved", map[string]interface{}{
		"path":    path,
		"entries": len(s.entries),
	})
	return nil
}
