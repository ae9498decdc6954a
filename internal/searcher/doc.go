// Package searcher implements the keyword query engine over the in-memory
// index.
//
// Matching is AND-semantics: a file qualifies only when every query keyword
// appears somewhere in its case-folded content. The score is the number of
// distinct keywords found, and the representative line is the single line
// containing the most keywords (earliest wins on ties).
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, exp)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:      "session token",
//	    MaxResults: 10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("%s:%d (score %d) %s\n", r.Path, r.Line, r.Score, r.Preview)
//	}
//
// # Query Expansion
//
// When fewer than five files qualify and the request opts in, the searcher
// asks the configured LLM provider for alternative terms, re-runs the base
// search for each, and merges new hits (deduplicated by path and line) up
// to MaxResults. Expansion is best-effort: a provider failure or timeout
// returns the base results unchanged.
//
// # Caching
//
// Responses are cached in an LRU keyed by a hash of the request; entries
// expire after a short TTL and the whole cache is purged whenever the
// index changes.
package searcher
