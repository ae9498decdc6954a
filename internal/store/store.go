// Package store holds the in-memory index: a map from file path to its
// indexed record, plus the persistence layer that snapshots it to disk.
//
// The store follows a single-writer discipline: every mutating operation
// takes the write lock, reads take the read lock, so searches never
// observe a store mid-clear.
package store

import (
	"sync"
	"time"

	"github.com/codescout/codescout-mcp/pkg/types"
)

// Store is the unit of truth queried at search time.
type Store struct {
	mu      sync.RWMutex
	records map[string]*types.FileRecord
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*types.FileRecord)}
}

// Put inserts or wholesale-replaces the record for record.Path.
func (s *Store) Put(record *types.FileRecord) {
	s.mu.Lock()
	s.records[record.Path] = record
	s.mu.Unlock()
}

// Get returns the record for path, or nil when absent.
func (s *Store) Get(path string) *types.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[path]
}

// Remove drops the record for path. Removing an absent path is a no-op.
func (s *Store) Remove(path string) {
	s.mu.Lock()
	delete(s.records, path)
	s.mu.Unlock()
}

// All returns a snapshot slice of the current records. Iteration order is
// not stable across calls.
func (s *Store) All() []*types.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.FileRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

// Clear empties the store. A full index pass clears before repopulating,
// so no stale entry survives a rename or delete the crawler no longer
// discovers.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = make(map[string]*types.FileRecord)
	s.mu.Unlock()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stats summarizes the store contents.
func (s *Store) Stats() types.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats types.StoreStats
	var last time.Time
	for _, r := range s.records {
		stats.Files++
		stats.Symbols += len(r.Symbols)
		if r.IndexedAt.After(last) {
			last = r.IndexedAt
		}
	}
	stats.LastIndexed = last
	return stats
}

// replaceAll swaps in a record set loaded from a snapshot.
func (s *Store) replaceAll(records map[string]*types.FileRecord) {
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}
