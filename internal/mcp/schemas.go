package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexWorkspaceTool returns the tool definition for index_workspace
func indexWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_workspace",
		Description: "Index a workspace to make its files searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the workspace root",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, rebuild the whole index instead of reusing a saved snapshot",
					"default":     false,
				},
			},
			Required: []string{"workspace"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search an indexed workspace with keyword queries. All keywords must match (AND)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the workspace root",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Whitespace-separated keywords; matching is case-insensitive",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
				"expand": map[string]interface{}{
					"type":        "boolean",
					"description": "If true and few results match, ask the configured LLM for alternative terms",
					"default":     false,
				},
			},
			Required: []string{"workspace", "query"},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Query index statistics for a workspace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"workspace": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the workspace root",
				},
			},
			Required: []string{"workspace"},
		},
	}
}
