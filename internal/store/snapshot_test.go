package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/codescout-mcp/pkg/types"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ws.snap.zst")
	root := "/workspaces/demo"

	s := New()
	a := record("/workspaces/demo/a.go", "package a\nfunc A() {}\n")
	a.Symbols = []types.Symbol{{Name: "A", Kind: types.KindFunction, Line: 2}}
	a.ModTime = time.Now().Truncate(time.Second)
	s.Put(a)
	s.Put(record("/workspaces/demo/b.py", "def b(): pass\n"))

	require.NoError(t, s.Save(path, root))

	loaded := New()
	require.NoError(t, loaded.Load(path, root))

	require.Equal(t, s.Len(), loaded.Len())
	got := loaded.Get(a.Path)
	require.NotNil(t, got)
	assert.Equal(t, a.Content, got.Content)
	assert.Equal(t, a.Symbols, got.Symbols)
}

func TestSnapshot_WorkspaceMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ws.snap.zst")

	s := New()
	s.Put(record("/old/root/a.go", "package a"))
	require.NoError(t, s.Save(path, "/old/root"))

	loaded := New()
	loaded.Put(record("/new/root/existing.go", "package existing"))

	err := loaded.Load(path, "/new/root")
	assert.ErrorIs(t, err, types.ErrSnapshotMismatch)
	// The store must not be partially adopted.
	assert.Equal(t, 1, loaded.Len())
	assert.NotNil(t, loaded.Get("/new/root/existing.go"))
}

func TestSnapshot_MissingFile(t *testing.T) {
	s := New()
	err := s.Load(filepath.Join(t.TempDir(), "absent.snap.zst"), "/ws")
	assert.ErrorIs(t, err, types.ErrNoSnapshot)
}

func TestSnapshot_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.snap.zst")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	s := New()
	err := s.Load(path, "/ws")
	assert.ErrorIs(t, err, types.ErrNoSnapshot)
	assert.Equal(t, 0, s.Len())
}

func TestSnapshot_UnknownVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ws.snap.zst")
	root := "/ws"

	future := Snapshot{Version: SnapshotVersion + 1, WorkspaceRoot: root}
	writeSnapshotFile(t, path, &future)

	s := New()
	err := s.Load(path, root)
	assert.ErrorIs(t, err, types.ErrNoSnapshot)
}

// writeSnapshotFile writes an arbitrary snapshot document in the on-disk
// encoding, bypassing Save's version stamping.
func writeSnapshotFile(t *testing.T, path string, snap *Snapshot) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(file)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(enc).Encode(snap))
	require.NoError(t, enc.Close())
	require.NoError(t, file.Close())
}

func TestSnapshot_AtomicWriteLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ws.snap.zst")

	s := New()
	s.Put(record("/ws/a.go", "package a"))
	require.NoError(t, s.Save(path, "/ws"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ws.snap.zst", entries[0].Name())
}

func TestSnapshotPath_PerWorkspace(t *testing.T) {
	a := SnapshotPath("/cache", "/ws/alpha")
	b := SnapshotPath("/cache", "/ws/beta")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, SnapshotPath("/cache", "/ws/alpha"), "stable per root")
}
