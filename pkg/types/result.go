package types

// SearchResult is one ranked hit from the query engine. Results are
// ephemeral and never persisted.
type SearchResult struct {
	Path    string   `json:"path"`
	Line    int      `json:"line"`  // 1-based line of the best-scoring line
	Score   int      `json:"score"` // distinct query keywords found in the file
	Preview string   `json:"preview"`
	Symbols []Symbol `json:"symbols,omitempty"`
}
