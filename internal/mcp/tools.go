package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/codescout-mcp/internal/searcher"
	"github.com/codescout/codescout-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeWorkspaceInvalid  = -32001 // Workspace root missing or not a directory
	ErrorCodeRebuildInProgress = -32002 // Another full rebuild is already running
	ErrorCodeNotIndexed        = -32003 // Workspace not indexed
	ErrorCodeEmptyQuery        = -32004 // Query parameter is empty
)

// handleIndexWorkspace handles the index_workspace tool invocation
func (s *Server) handleIndexWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, ok := args["workspace"].(string)
	if !ok || root == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "workspace parameter is required", map[string]interface{}{
			"param":  "workspace",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(root); err != nil {
		return nil, newMCPError(ErrorCodeWorkspaceInvalid, "invalid workspace", map[string]interface{}{
			"param":  "workspace",
			"reason": err.Error(),
		})
	}

	force := getBoolDefault(args, "force", false)

	ws, existed, err := s.workspaceFor(ctx, root)
	if err != nil {
		return nil, indexError(err)
	}

	var stats *types.IndexStats
	if existed || force {
		// A fresh workspace was just populated by workspaceFor; anything
		// else gets an explicit rebuild.
		stats, err = ws.service.Reindex(ctx)
		if err != nil {
			return nil, indexError(err)
		}
	} else {
		stats = ws.buildStats
	}

	response := map[string]interface{}{
		"indexed":   true,
		"workspace": ws.service.Root(),
	}
	if stats != nil {
		response["files_indexed"] = stats.FilesIndexed
		response["files_skipped"] = stats.FilesSkipped
		response["symbols_extracted"] = stats.SymbolsExtracted
		response["duration_ms"] = stats.Duration.Milliseconds()
	} else {
		// Restored from snapshot without crawling.
		st := ws.service.Stats()
		response["restored"] = true
		response["files_indexed"] = st.Files
		response["symbols_extracted"] = st.Symbols
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, ok := args["workspace"].(string)
	if !ok || root == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "workspace parameter is required", map[string]interface{}{
			"param":  "workspace",
			"reason": "missing or empty",
		})
	}
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(root); err != nil {
		return nil, newMCPError(ErrorCodeWorkspaceInvalid, "invalid workspace", map[string]interface{}{
			"param":  "workspace",
			"reason": err.Error(),
		})
	}

	maxResults := getIntDefault(args, "max_results", searcher.DefaultMaxResults)
	if maxResults < 1 || maxResults > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_results must be between 1 and 100", map[string]interface{}{
			"param": "max_results",
			"value": maxResults,
		})
	}

	ws, _, err := s.workspaceFor(ctx, root)
	if err != nil {
		return nil, indexError(err)
	}

	resp, err := ws.searcher.Search(ctx, searcher.SearchRequest{
		Query:        query,
		MaxResults:   maxResults,
		UseExpansion: getBoolDefault(args, "expand", false),
	})
	if err != nil {
		if errors.Is(err, types.ErrEmptyQuery) {
			return nil, newMCPError(ErrorCodeEmptyQuery, "query contains no keywords", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := map[string]interface{}{
			"path":    r.Path,
			"line":    r.Line,
			"score":   r.Score,
			"preview": r.Preview,
		}
		if len(r.Symbols) > 0 {
			syms := make([]map[string]interface{}, 0, len(r.Symbols))
			for _, sym := range r.Symbols {
				syms = append(syms, map[string]interface{}{
					"name": sym.Name,
					"kind": string(sym.Kind),
					"line": sym.Line,
				})
			}
			entry["symbols"] = syms
		}
		results = append(results, entry)
	}

	response := map[string]interface{}{
		"query":         query,
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
		"results":       results,
	}
	if len(resp.ExpandedTerms) > 0 {
		response["expanded_terms"] = resp.ExpandedTerms
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, ok := args["workspace"].(string)
	if !ok || root == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "workspace parameter is required", map[string]interface{}{
			"param":  "workspace",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(root); err != nil {
		return nil, newMCPError(ErrorCodeWorkspaceInvalid, "invalid workspace", map[string]interface{}{
			"param":  "workspace",
			"reason": err.Error(),
		})
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to resolve workspace", nil)
	}

	// Stats never force an index build; an unknown workspace just reports
	// that it is not indexed yet.
	s.mu.Lock()
	ws, ok := s.workspaces[abs]
	s.mu.Unlock()
	if !ok {
		response := map[string]interface{}{
			"indexed":   false,
			"workspace": abs,
			"message":   "Workspace not indexed. Use the index_workspace tool first.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}

	st := ws.service.Stats()
	response := map[string]interface{}{
		"indexed":   true,
		"workspace": ws.service.Root(),
		"statistics": map[string]interface{}{
			"files_count":   st.Files,
			"symbols_count": st.Symbols,
			"last_indexed":  st.LastIndexed.Format("2006-01-02T15:04:05Z07:00"),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// indexError maps indexing failures onto MCP error codes.
func indexError(err error) error {
	switch {
	case errors.Is(err, types.ErrWorkspaceInvalid):
		return newMCPError(ErrorCodeWorkspaceInvalid, "invalid workspace", map[string]interface{}{
			"reason": err.Error(),
		})
	case errors.Is(err, types.ErrRebuildInProgress):
		return newMCPError(ErrorCodeRebuildInProgress, "a rebuild is already running for this workspace", nil)
	default:
		return newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that a workspace root exists and is a readable
// directory.
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("workspace is required")
	ErrPathNotAbsolute = errors.New("workspace must be an absolute path")
	ErrPathNotFound    = errors.New("workspace does not exist")
	ErrPathNotReadable = errors.New("workspace is not readable")
	ErrNotDirectory    = errors.New("workspace is not a directory")
)
