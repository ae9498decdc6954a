package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codescout/codescout-mcp/internal/crawler"
	"github.com/codescout/codescout-mcp/internal/extractor"
	"github.com/codescout/codescout-mcp/internal/filter"
	"github.com/codescout/codescout-mcp/internal/language"
	"github.com/codescout/codescout-mcp/internal/store"
	"github.com/codescout/codescout-mcp/pkg/types"
)

// DefaultFlushInterval is how often a dirty store is snapshotted to disk.
const DefaultFlushInterval = 30 * time.Second

// Options configures a Service.
type Options struct {
	Root          string
	Store         *store.Store
	Filter        *filter.Filter
	Extractor     *extractor.Extractor
	SnapshotPath  string // empty disables persistence
	Workers       int    // default runtime.NumCPU()
	FlushInterval time.Duration
	Logger        *slog.Logger

	// OnChange runs after every store mutation; the server wires it to the
	// searcher's cache invalidation.
	OnChange func()
}

// Service coordinates the indexing pipeline for one workspace:
// crawl -> filter -> read -> extract -> store, with snapshot persistence.
type Service struct {
	root      string
	store     *store.Store
	filter    *filter.Filter
	extractor *extractor.Extractor
	crawler   *crawler.Crawler

	snapshotPath string
	workers      int
	logger       *slog.Logger
	onChange     func()

	lock  IndexLock // guards full rebuilds
	dirty atomic.Bool

	flushInterval time.Duration
	stopFlusher   chan struct{}
	flusherDone   chan struct{}
	stopOnce      sync.Once
}

// New creates a Service rooted at opts.Root. The root must be an existing
// directory; anything else fails with ErrWorkspaceInvalid.
func New(opts Options) (*Service, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrWorkspaceInvalid, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrWorkspaceInvalid, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrWorkspaceInvalid, root)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	flushInterval := opts.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onChange := opts.OnChange
	if onChange == nil {
		onChange = func() {}
	}

	svc := &Service{
		root:          root,
		store:         opts.Store,
		filter:        opts.Filter,
		extractor:     opts.Extractor,
		crawler:       crawler.New(opts.Filter, crawler.DefaultBatchSize),
		snapshotPath:  opts.SnapshotPath,
		workers:       workers,
		logger:        logger,
		onChange:      onChange,
		flushInterval: flushInterval,
		stopFlusher:   make(chan struct{}),
		flusherDone:   make(chan struct{}),
	}

	go svc.flushLoop()
	return svc, nil
}

// Root returns the absolute workspace root.
func (s *Service) Root() string { return s.root }

// LoadOrRebuild restores the index from its snapshot if one exists for
// this workspace, and rebuilds from scratch otherwise. A snapshot written
// for a different workspace root is discarded, never partially adopted.
func (s *Service) LoadOrRebuild(ctx context.Context) (*types.IndexStats, error) {
	if s.snapshotPath != "" {
		err := s.store.Load(s.snapshotPath, s.root)
		if err == nil {
			s.logger.Info("index restored from snapshot",
				"path", s.snapshotPath, "files", s.store.Len())
			s.onChange()
			return nil, nil
		}
		switch {
		case errors.Is(err, types.ErrNoSnapshot):
			s.logger.Info("no usable snapshot, rebuilding", "path", s.snapshotPath)
		case errors.Is(err, types.ErrSnapshotMismatch):
			s.logger.Warn("snapshot belongs to another workspace, rebuilding",
				"path", s.snapshotPath)
		default:
			return nil, err
		}
	}
	return s.Reindex(ctx)
}

// Reindex rebuilds the whole index. Only one rebuild runs at a time; a
// second concurrent call fails fast with ErrRebuildInProgress. On
// cancellation the store keeps whatever was indexed so far.
func (s *Service) Reindex(ctx context.Context) (*types.IndexStats, error) {
	if !s.lock.TryAcquire() {
		return nil, types.ErrRebuildInProgress
	}
	defer s.lock.Release()

	start := time.Now()
	s.store.Clear()

	var indexed, skipped, symbols int64

	g, gctx := errgroup.WithContext(ctx)
	semaphore := make(chan struct{}, s.workers)

	for batch := range s.crawler.Crawl(gctx, s.root) {
		batch := batch
		g.Go(func() error {
			for _, path := range batch {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case semaphore <- struct{}{}:
				}

				rec, err := s.indexFile(path)
				<-semaphore

				if err != nil {
					atomic.AddInt64(&skipped, 1)
					s.logger.Debug("file skipped", "path", path, "error", err)
					continue
				}
				s.store.Put(rec)
				atomic.AddInt64(&indexed, 1)
				atomic.AddInt64(&symbols, int64(len(rec.Symbols)))
			}
			return nil
		})
	}

	err := g.Wait()
	s.onChange()

	stats := &types.IndexStats{
		FilesIndexed:     int(indexed),
		FilesSkipped:     int(skipped),
		SymbolsExtracted: int(symbols),
		Duration:         time.Since(start),
	}

	if err != nil {
		// Partial index stays usable; the snapshot keeps the previous state.
		s.logger.Warn("reindex interrupted", "error", err, "indexed", indexed)
		return stats, err
	}

	s.logger.Info("reindex complete",
		"files", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"symbols", stats.SymbolsExtracted,
		"duration", stats.Duration)

	s.dirty.Store(true)
	if ferr := s.Flush(); ferr != nil {
		s.logger.Warn("snapshot save failed", "error", ferr)
	}
	return stats, nil
}

// indexFile reads and extracts one eligible file into a record. Extraction
// failures are tolerated: the file is still searchable by content, just
// without symbols.
func (s *Service) indexFile(path string) (*types.FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if language.IsBinary(content) {
		return nil, fmt.Errorf("binary content")
	}

	lang := language.FromPath(path)
	var syms []types.Symbol
	if s.extractor.Supported(lang) {
		syms, err = s.extractor.Extract(context.Background(), content, lang)
		if err != nil {
			s.logger.Debug("symbol extraction failed", "path", path, "error", err)
			syms = nil
		}
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}

	return &types.FileRecord{
		Path:      filepath.ToSlash(rel),
		Content:   string(content),
		Symbols:   syms,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		IndexedAt: time.Now(),
	}, nil
}

// Update re-indexes a single file in place. A file that no longer exists
// or is no longer eligible is dropped from the index; everything else gets
// its record replaced wholesale.
func (s *Service) Update(ctx context.Context, path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s outside workspace", types.ErrWorkspaceInvalid, path)
	}
	key := filepath.ToSlash(rel)

	if _, err := os.Stat(path); err != nil || !s.filter.Eligible(path) {
		s.store.Remove(key)
		s.dirty.Store(true)
		s.onChange()
		return nil
	}

	rec, err := s.indexFile(path)
	if err != nil {
		s.store.Remove(key)
		s.dirty.Store(true)
		s.onChange()
		return nil
	}

	s.store.Put(rec)
	s.dirty.Store(true)
	s.onChange()
	return nil
}

// Stats reports current index contents.
func (s *Service) Stats() types.StoreStats {
	return s.store.Stats()
}

// Flush writes the snapshot if the store changed since the last write.
func (s *Service) Flush() error {
	if s.snapshotPath == "" || !s.dirty.Swap(false) {
		return nil
	}
	if err := s.store.Save(s.snapshotPath, s.root); err != nil {
		s.dirty.Store(true)
		return err
	}
	return nil
}

// Close stops the background flusher and writes any pending snapshot.
func (s *Service) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopFlusher)
		<-s.flusherDone
	})
	return s.Flush()
}

func (s *Service) flushLoop() {
	defer close(s.flusherDone)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopFlusher:
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				s.logger.Warn("periodic snapshot save failed", "error", err)
			}
		}
	}
}
