package types

import "time"

// FileRecord is the stored unit of indexed content for one file.
//
// Content is an immutable snapshot taken at index time; records are only
// ever replaced wholesale, never patched field by field.
type FileRecord struct {
	Path      string    `json:"path"` // workspace-relative slash path, identity key in the store
	Content   string    `json:"content"`
	Symbols   []Symbol  `json:"symbols,omitempty"` // AST traversal order
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modTime"`
	IndexedAt time.Time `json:"indexedAt"`
}

// IndexStats summarizes a full index pass.
type IndexStats struct {
	FilesIndexed     int
	FilesSkipped     int
	SymbolsExtracted int
	Duration         time.Duration
}

// StoreStats describes the current contents of the index store.
type StoreStats struct {
	Files       int
	Symbols     int
	LastIndexed time.Time
}
