package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codescout/codescout-mcp/internal/expander"
	"github.com/codescout/codescout-mcp/internal/store"
	"github.com/codescout/codescout-mcp/pkg/types"
)

const (
	// DefaultMaxResults bounds the result list when the request does not.
	DefaultMaxResults = 20

	// expansionThreshold is the qualifying-result count below which query
	// expansion kicks in.
	expansionThreshold = 5

	// expansionTimeout bounds the provider call. Exceeding it fails the
	// expansion, never the base search.
	expansionTimeout = 10 * time.Second

	cacheSize = 512
	cacheTTL  = 5 * time.Minute
)

// SearchRequest contains parameters for a search operation.
type SearchRequest struct {
	Query        string
	MaxResults   int  // 0 selects DefaultMaxResults
	UseExpansion bool // allow LLM query expansion when results are sparse
}

// SearchResponse contains ranked results and metadata about how they were
// produced.
type SearchResponse struct {
	Results       []types.SearchResult
	TotalResults  int
	Duration      time.Duration
	CacheHit      bool
	ExpandedTerms []string // alternative terms that contributed results
}

// cacheEntry represents a cached search response with expiration time.
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher answers keyword queries against the index store. Safe for
// concurrent use; each search reads a consistent snapshot of the store.
type Searcher struct {
	store    *store.Store
	expander expander.Expander
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a Searcher. exp may be nil when expansion is
// unavailable.
func NewSearcher(st *store.Store, exp expander.Expander) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		// This should never happen with a valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:    st,
		expander: exp,
		cache:    cache,
	}
}

// Search runs the keyword query and returns ranked, line-located results.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	keywords := tokenize(req.Query)
	if len(keywords) == 0 {
		return nil, types.ErrEmptyQuery
	}
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}

	if cached := s.checkCache(req); cached != nil {
		cached.CacheHit = true
		cached.Duration = time.Since(start)
		return cached, nil
	}

	records := s.store.All()
	results := matchRecords(records, keywords)

	resp := &SearchResponse{}
	if len(results) < expansionThreshold && req.UseExpansion && s.expander != nil {
		results, resp.ExpandedTerms = s.expand(ctx, req, records, results)
	}

	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	resp.Results = results
	resp.TotalResults = len(results)
	resp.Duration = time.Since(start)

	s.storeInCache(req, resp)
	return resp, nil
}

// InvalidateCache drops all cached responses. Called after any store
// mutation so stale results never outlive an index update.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// tokenize splits a query into distinct case-folded keywords.
func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))

	seen := make(map[string]struct{}, len(fields))
	var keywords []string
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}

// matchRecords scores every record against the keywords. A file qualifies
// only when its folded content contains every keyword as a substring; its
// score is the number of distinct keywords found. Results come back sorted
// by score descending, path ascending.
func matchRecords(records []*types.FileRecord, keywords []string) []types.SearchResult {
	var results []types.SearchResult

	for _, rec := range records {
		folded := strings.ToLower(rec.Content)

		score := 0
		for _, kw := range keywords {
			if strings.Contains(folded, kw) {
				score++
			}
		}
		if score < len(keywords) {
			continue // one missing keyword excludes the file
		}

		line, preview := bestLine(rec.Content, keywords)
		results = append(results, types.SearchResult{
			Path:    rec.Path,
			Line:    line,
			Score:   score,
			Preview: preview,
			Symbols: rec.Symbols,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})
	return results
}

// bestLine locates the representative line: the one containing the most
// keywords. The strict > comparison means the earliest line reaching the
// maximum wins. Line numbers are 1-based; the preview is the raw line.
func bestLine(content string, keywords []string) (int, string) {
	lines := strings.Split(content, "\n")

	bestIdx := 0
	bestCount := 0
	for i, line := range lines {
		folded := strings.ToLower(line)
		count := 0
		for _, kw := range keywords {
			if strings.Contains(folded, kw) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			bestIdx = i
		}
	}
	return bestIdx + 1, lines[bestIdx]
}

// expand asks the LLM collaborator for alternative terms and merges their
// hits into the base result set. Expansion only ever adds results: any
// provider failure returns the base set untouched.
func (s *Searcher) expand(ctx context.Context, req SearchRequest, records []*types.FileRecord, base []types.SearchResult) ([]types.SearchResult, []string) {
	ectx, cancel := context.WithTimeout(ctx, expansionTimeout)
	defer cancel()

	terms, err := s.expander.Expand(ectx, req.Query)
	if err != nil || len(terms) == 0 {
		return base, nil
	}

	seen := make(map[string]struct{}, len(base))
	for _, r := range base {
		seen[dedupeKey(r)] = struct{}{}
	}

	merged := base
	var used []string
	for _, term := range terms {
		keywords := tokenize(term)
		if len(keywords) == 0 {
			continue
		}
		added := false
		for _, r := range matchRecords(records, keywords) {
			if len(merged) >= req.MaxResults {
				if added {
					used = append(used, term)
				}
				return merged, used
			}
			key := dedupeKey(r)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
			added = true
		}
		if added {
			used = append(used, term)
		}
	}
	return merged, used
}

func dedupeKey(r types.SearchResult) string {
	return fmt.Sprintf("%s:%d", r.Path, r.Line)
}

// computeQueryHash generates a cache key from request parameters.
func computeQueryHash(req SearchRequest) [32]byte {
	var b strings.Builder
	b.WriteString(req.Query)
	fmt.Fprintf(&b, "|%d|%t", req.MaxResults, req.UseExpansion)
	return sha256.Sum256([]byte(b.String()))
}

// checkCache returns a copy of a cached response, or nil on miss or expiry.
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	key := computeQueryHash(req)

	s.cacheMu.RLock()
	entry, ok := s.cache.Get(key)
	s.cacheMu.RUnlock()
	if !ok {
		return nil
	}

	if time.Now().After(entry.expiresAt) {
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	return copyResponse(entry.response)
}

// storeInCache caches a copy of the response so later mutation by callers
// cannot corrupt it.
func (s *Searcher) storeInCache(req SearchRequest, resp *SearchResponse) {
	entry := &cacheEntry{
		response:  copyResponse(resp),
		expiresAt: time.Now().Add(cacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

func copyResponse(src *SearchResponse) *SearchResponse {
	return &SearchResponse{
		Results:       append([]types.SearchResult(nil), src.Results...),
		TotalResults:  src.TotalResults,
		Duration:      src.Duration,
		CacheHit:      src.CacheHit,
		ExpandedTerms: append([]string(nil), src.ExpandedTerms...),
	}
}
