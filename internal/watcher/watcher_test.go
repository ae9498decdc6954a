package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/codescout-mcp/internal/extractor"
	"github.com/codescout/codescout-mcp/internal/filter"
	"github.com/codescout/codescout-mcp/internal/indexer"
	"github.com/codescout/codescout-mcp/internal/store"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer) []string {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func TestDebouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go")

	batch := receiveBatch(t, d)
	assert.Equal(t, []string{"main.go"}, batch)
}

func TestDebouncer_CollapsesRepeatedPaths(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Editors fire several events per save; the index needs one.
	d.Add("main.go")
	d.Add("main.go")
	d.Add("main.go")

	batch := receiveBatch(t, d)
	assert.Equal(t, []string{"main.go"}, batch)
}

func TestDebouncer_MultiplePaths(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go")
	d.Add("util.go")
	d.Add("README.md")

	batch := receiveBatch(t, d)
	sort.Strings(batch)
	assert.Equal(t, []string{"README.md", "main.go", "util.go"}, batch)
}

func TestDebouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("main.go")
	time.Sleep(testInterval / 2)
	d.Add("util.go")

	// The second event restarted the quiet period, so both arrive together.
	batch := receiveBatch(t, d)
	require.Len(t, batch, 2)
	sort.Strings(batch)
	assert.Equal(t, []string{"main.go", "util.go"}, batch)
}

func TestDebouncer_NeverBlocksWithoutConsumer(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Flush far more batches than the output buffer holds with nobody
	// reading; Add and flush must keep returning instead of wedging on
	// the channel send.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			d.Add(fmt.Sprintf("f%02d.go", i))
			d.flush()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer blocked with a full output buffer")
	}
}

const (
	convergeTimeout = 5 * time.Second
	convergeTick    = 20 * time.Millisecond
)

func writeWorkspaceFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newWatchedWorkspace builds an indexed workspace with a running watcher on
// top and returns its root and store.
func newWatchedWorkspace(t *testing.T) (string, *store.Store) {
	t.Helper()
	root := t.TempDir()
	writeWorkspaceFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	st := store.New()
	f := filter.New(filter.Options{Root: root})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := indexer.New(indexer.Options{
		Root:      root,
		Store:     st,
		Filter:    f,
		Extractor: extractor.New(),
		Logger:    logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	_, err = svc.Reindex(context.Background())
	require.NoError(t, err)

	w, err := New(svc, f, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})

	return root, st
}

func TestWatcher_IndexesCreatedFile(t *testing.T) {
	root, st := newWatchedWorkspace(t)

	writeWorkspaceFile(t, root, "added.go", "package main\n\nfunc added() {}\n")

	require.Eventually(t, func() bool {
		return st.Get("added.go") != nil
	}, convergeTimeout, convergeTick)

	rec := st.Get("added.go")
	require.Len(t, rec.Symbols, 1)
	assert.Equal(t, "added", rec.Symbols[0].Name)
}

func TestWatcher_ReindexesModifiedFile(t *testing.T) {
	root, st := newWatchedWorkspace(t)

	writeWorkspaceFile(t, root, "main.go", "package main\n\nfunc main() {}\n\nfunc extra() {}\n")

	require.Eventually(t, func() bool {
		rec := st.Get("main.go")
		return rec != nil && len(rec.Symbols) == 2
	}, convergeTimeout, convergeTick)

	rec := st.Get("main.go")
	assert.Equal(t, "extra", rec.Symbols[1].Name)
}

func TestWatcher_EvictsRemovedFile(t *testing.T) {
	root, st := newWatchedWorkspace(t)
	require.NotNil(t, st.Get("main.go"))

	require.NoError(t, os.Remove(filepath.Join(root, "main.go")))

	require.Eventually(t, func() bool {
		return st.Get("main.go") == nil
	}, convergeTimeout, convergeTick)
}

func TestWatcher_EvictsRenamedFile(t *testing.T) {
	root, st := newWatchedWorkspace(t)

	oldPath := filepath.Join(root, "main.go")
	require.NoError(t, os.Rename(oldPath, filepath.Join(root, "renamed.go")))

	require.Eventually(t, func() bool {
		return st.Get("main.go") == nil && st.Get("renamed.go") != nil
	}, convergeTimeout, convergeTick)
}

func TestWatcher_WatchesCreatedDirectory(t *testing.T) {
	root, st := newWatchedWorkspace(t)

	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	// Give the watcher a beat to register the new directory before the
	// file inside it appears.
	time.Sleep(500 * time.Millisecond)

	writeWorkspaceFile(t, root, "sub/util.go", "package sub\n\nfunc helper() {}\n")

	require.Eventually(t, func() bool {
		return st.Get("sub/util.go") != nil
	}, convergeTimeout, convergeTick)
}

func TestWatcher_IgnoreRuleChangeReindexes(t *testing.T) {
	root, st := newWatchedWorkspace(t)

	writeWorkspaceFile(t, root, "secret.go", "package main\n")
	require.Eventually(t, func() bool {
		return st.Get("secret.go") != nil
	}, convergeTimeout, convergeTick)

	// New ignore rules flip eligibility for an already-indexed file; the
	// watcher must reload the filter and rebuild.
	writeWorkspaceFile(t, root, filter.IgnoreFileName, "secret.go\n")

	require.Eventually(t, func() bool {
		return st.Get("secret.go") == nil
	}, convergeTimeout, convergeTick)
	assert.NotNil(t, st.Get("main.go"), "eligible files survive the rebuild")
}
