// Package watcher keeps the index current while the server runs: it
// watches the workspace recursively, debounces change bursts, and feeds
// single-file updates to the indexer service.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codescout/codescout-mcp/internal/filter"
	"github.com/codescout/codescout-mcp/internal/indexer"
	"github.com/codescout/codescout-mcp/pkg/types"
)

// Watcher provides recursive file system watching with debouncing.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	filter    *filter.Filter
	service   *indexer.Service
	root      string
	logger    *slog.Logger
}

// New creates a recursive watcher on the service's workspace root,
// registering every directory the filter does not skip.
func New(svc *indexer.Service, f *filter.Filter, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(DefaultInterval),
		filter:    f,
		service:   svc,
		root:      svc.Root(),
		logger:    logger,
	}

	err = filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are not watchable either
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && f.SkipDir(path) {
			return filepath.SkipDir
		}
		if watchErr := fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
	if err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

// Start begins processing events until ctx is cancelled or the watcher is
// closed.
func (w *Watcher) Start(ctx context.Context) {
	go w.eventLoop()
	go w.applyLoop(ctx)
}

// eventLoop converts raw fsnotify events into debounced path batches.
func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// A newly created directory must itself be watched.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if !w.filter.SkipDir(path) {
				if err := w.fsWatcher.Add(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	// Ignore rule changes always pass through so the filter reloads.
	if filepath.Base(path) != filter.IgnoreFileName {
		// Create/write events for ineligible files are noise. Remove and
		// rename events must pass regardless: the path no longer stats,
		// and the update handler is what evicts it from the index.
		if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
			if !w.filter.Eligible(path) {
				return
			}
		} else if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
			return
		}
	}

	w.debouncer.Add(path)
}

// applyLoop drains debounced batches into the indexer service.
func (w *Watcher) applyLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.apply(ctx, batch)
		}
	}
}

func (w *Watcher) apply(ctx context.Context, batch []string) {
	reindex := false
	for _, path := range batch {
		if filepath.Base(path) == filter.IgnoreFileName {
			reindex = true
			continue
		}
		if err := w.service.Update(ctx, path); err != nil {
			w.logger.Warn("incremental update failed", "path", path, "error", err)
		}
	}

	if reindex {
		// Changed ignore rules can flip eligibility anywhere in the tree.
		w.filter.Reload()
		start := time.Now()
		if _, err := w.service.Reindex(ctx); err != nil {
			if !errors.Is(err, types.ErrRebuildInProgress) {
				w.logger.Warn("reindex after ignore change failed", "error", err)
			}
			return
		}
		w.logger.Info("reindexed after ignore rule change", "duration", time.Since(start))
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
