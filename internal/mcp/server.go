// Package mcp exposes the indexing and search engine as MCP tools over
// stdio. Workspaces are materialized lazily: the first tool call naming a
// root builds (or restores) its index, and later calls reuse it.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codescout/codescout-mcp/internal/expander"
	"github.com/codescout/codescout-mcp/internal/extractor"
	"github.com/codescout/codescout-mcp/internal/filter"
	"github.com/codescout/codescout-mcp/internal/indexer"
	"github.com/codescout/codescout-mcp/internal/searcher"
	"github.com/codescout/codescout-mcp/internal/store"
	"github.com/codescout/codescout-mcp/internal/watcher"
	"github.com/codescout/codescout-mcp/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "codescout-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Options configures a Server.
type Options struct {
	CacheDir    string // empty selects ~/.codescout/cache
	Logger      *slog.Logger
	EnableWatch bool // keep indexes current via file system watching
}

// workspace bundles the per-root engine: one store, one indexer service,
// one searcher, optionally one watcher.
type workspace struct {
	service  *indexer.Service
	searcher *searcher.Searcher
	watcher  *watcher.Watcher

	// buildStats holds the initial crawl statistics; nil when the index was
	// restored from a snapshot instead.
	buildStats *types.IndexStats
}

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp      *server.MCPServer
	cacheDir string
	logger   *slog.Logger
	expander expander.Expander
	watch    bool

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// NewServer creates a new MCP server instance.
func NewServer(opts Options) (*Server, error) {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".codescout", "cache")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	exp, err := expander.NewFromEnv()
	if err != nil {
		logger.Warn("query expansion unavailable", "error", err)
		exp = expander.Disabled{}
	}
	logger.Info("query expansion provider", "provider", exp.Provider())

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion),
		cacheDir:   cacheDir,
		logger:     logger,
		expander:   exp,
		watch:      opts.EnableWatch,
		ctx:        ctx,
		cancel:     cancel,
		workspaces: make(map[string]*workspace),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()
	return server.ServeStdio(s.mcp)
}

// Close tears down all workspaces, flushing pending snapshots.
func (s *Server) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for root, ws := range s.workspaces {
		if ws.watcher != nil {
			_ = ws.watcher.Close()
		}
		if err := ws.service.Close(); err != nil {
			s.logger.Warn("workspace shutdown failed", "root", root, "error", err)
		}
	}
	s.workspaces = make(map[string]*workspace)
	_ = s.expander.Close()
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexWorkspaceTool(), s.handleIndexWorkspace)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
}

// workspaceFor returns the engine for root, building and populating it on
// first use. The boolean reports whether the workspace already existed.
func (s *Server) workspaceFor(ctx context.Context, root string) (*workspace, bool, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	if ws, ok := s.workspaces[abs]; ok {
		s.mu.Unlock()
		return ws, true, nil
	}
	s.mu.Unlock()

	st := store.New()
	f := filter.New(filter.Options{Root: abs})
	srch := searcher.NewSearcher(st, s.expander)

	svc, err := indexer.New(indexer.Options{
		Root:         abs,
		Store:        st,
		Filter:       f,
		Extractor:    extractor.New(),
		SnapshotPath: store.SnapshotPath(s.cacheDir, abs),
		Logger:       s.logger.With("workspace", abs),
		OnChange:     srch.InvalidateCache,
	})
	if err != nil {
		return nil, false, err
	}

	stats, err := svc.LoadOrRebuild(ctx)
	if err != nil {
		_ = svc.Close()
		return nil, false, err
	}

	ws := &workspace{service: svc, searcher: srch, buildStats: stats}
	if s.watch {
		w, werr := watcher.New(svc, f, s.logger.With("workspace", abs))
		if werr != nil {
			s.logger.Warn("file watching disabled", "root", abs, "error", werr)
		} else {
			w.Start(s.ctx)
			ws.watcher = w
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.workspaces[abs]; ok {
		// Lost a build race; keep the first one.
		if ws.watcher != nil {
			_ = ws.watcher.Close()
		}
		_ = svc.Close()
		return existing, true, nil
	}
	s.workspaces[abs] = ws
	return ws, false, nil
}
