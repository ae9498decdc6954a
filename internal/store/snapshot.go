package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/codescout/codescout-mcp/pkg/types"
)

// SnapshotVersion identifies the on-disk format. Loading any other
// version is treated identically to "no snapshot".
const SnapshotVersion = 1

// Snapshot is the persisted form of the store. It is only trusted when
// its WorkspaceRoot equals the current root exactly; any mismatch forces a
// full rebuild, never a partial merge.
type Snapshot struct {
	Version       int                          `json:"version"`
	IndexedAt     time.Time                    `json:"indexedAt"`
	WorkspaceRoot string                       `json:"workspaceRoot"`
	Records       map[string]*types.FileRecord `json:"records"`
}

// SnapshotPath returns the workspace-scoped cache file for root under
// cacheDir, so multiple workspaces never collide.
func SnapshotPath(cacheDir, root string) string {
	sum := sha256.Sum256([]byte(root))
	return filepath.Join(cacheDir, hex.EncodeToString(sum[:8])+".snap.zst")
}

// Save writes the store to path as zstd-compressed JSON. The write goes
// to a temp file first and is renamed into place, so an interrupted save
// never leaves a half-written cache behind.
func (s *Store) Save(path, workspaceRoot string) error {
	s.mu.RLock()
	snap := Snapshot{
		Version:       SnapshotVersion,
		IndexedAt:     time.Now(),
		WorkspaceRoot: workspaceRoot,
		Records:       make(map[string]*types.FileRecord, len(s.records)),
	}
	for p, r := range s.records {
		snap.Records[p] = r
	}
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc, err := zstd.NewWriter(tmp)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}
	if err := json.NewEncoder(enc).Encode(&snap); err != nil {
		_ = enc.Close()
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}
	if err := enc.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", types.ErrSaveFailed, err)
	}
	return nil
}

// Load reads a snapshot from path and, when it validates against
// workspaceRoot, replaces the store contents with it. Absence, corruption,
// or an unrecognized version return ErrNoSnapshot; a root mismatch returns
// ErrSnapshotMismatch. In both cases the store is left untouched and the
// caller is expected to trigger a full rebuild.
func (s *Store) Load(path, workspaceRoot string) error {
	file, err := os.Open(path)
	if err != nil {
		return types.ErrNoSnapshot
	}
	defer func() { _ = file.Close() }()

	dec, err := zstd.NewReader(file)
	if err != nil {
		return types.ErrNoSnapshot
	}
	defer dec.Close()

	var snap Snapshot
	if err := json.NewDecoder(dec.IOReadCloser()).Decode(&snap); err != nil {
		return types.ErrNoSnapshot
	}
	if snap.Version != SnapshotVersion {
		return types.ErrNoSnapshot
	}
	if snap.WorkspaceRoot != workspaceRoot {
		return types.ErrSnapshotMismatch
	}
	if snap.Records == nil {
		snap.Records = make(map[string]*types.FileRecord)
	}

	s.replaceAll(snap.Records)
	return nil
}
