// Package expander asks an external LLM for alternative search terms when
// a query comes back with too few hits. Expansion is strictly best-effort:
// every failure mode (transport error, timeout, malformed response) leaves
// the caller's original result set intact.
package expander

import (
	"context"
	"errors"
	"strings"
)

// Common errors.
var (
	ErrEmptyQuery     = errors.New("query cannot be empty")
	ErrProviderFailed = errors.New("expansion provider failed")
	ErrNotConfigured  = errors.New("no expansion provider configured")
)

// MaxTerms caps how many alternative terms a provider may return.
const MaxTerms = 5

// Expander generates alternative search terms for a query.
type Expander interface {
	// Expand returns up to MaxTerms alternative terms for query. The
	// returned terms never include the original query.
	Expand(ctx context.Context, query string) ([]string, error)

	// Provider returns the provider name for logging.
	Provider() string

	// Close releases any resources held by the expander.
	Close() error
}

// parseTerms splits a model response into clean search terms. Models are
// asked for one term per line but routinely return numbered lists, bullet
// points, or comma-separated strings; all of those are tolerated.
func parseTerms(raw, originalQuery string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ','
	})

	lowerQuery := strings.ToLower(strings.TrimSpace(originalQuery))
	seen := make(map[string]struct{})
	var terms []string

	for _, field := range fields {
		term := strings.TrimSpace(field)
		term = strings.TrimLeft(term, "-*0123456789.) ")
		term = strings.Trim(term, `"'`)
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		lower := strings.ToLower(term)
		if lower == lowerQuery {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		terms = append(terms, term)
		if len(terms) >= MaxTerms {
			break
		}
	}
	return terms
}
