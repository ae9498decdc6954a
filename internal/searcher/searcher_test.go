package searcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescout/codescout-mcp/internal/store"
	"github.com/codescout/codescout-mcp/pkg/types"
)

func newTestStore(files map[string]string) *store.Store {
	st := store.New()
	for path, content := range files {
		st.Put(&types.FileRecord{Path: path, Content: content})
	}
	return st
}

func TestSearch_SingleKeyword(t *testing.T) {
	st := newTestStore(map[string]string{
		"a.py": "def foo():\n    return 1\n",
		"b.py": "def bar():\n    pass\n",
	})
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "foo"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	r := resp.Results[0]
	assert.Equal(t, "a.py", r.Path)
	assert.Equal(t, 1, r.Line)
	assert.Equal(t, 1, r.Score)
	assert.Equal(t, "def foo():", r.Preview)
}

func TestSearch_ANDSemantics(t *testing.T) {
	st := newTestStore(map[string]string{
		"a.py": "def foo():\n    return 1\n",
		"b.py": "def bar():\n    pass\n",
	})
	s := NewSearcher(st, nil)

	// foo and bar never appear in the same file, so nothing qualifies.
	resp, err := s.Search(context.Background(), SearchRequest{Query: "foo bar"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_ScoreIsDistinctKeywords(t *testing.T) {
	st := newTestStore(map[string]string{
		"both.go": "func open() {}\nfunc close() {}\n",
	})
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "open close"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].Score)

	// Repeated keywords count once.
	resp, err = s.Search(context.Background(), SearchRequest{Query: "open open close"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].Score)
}

func TestSearch_BestLineEarliestMaxWins(t *testing.T) {
	st := newTestStore(map[string]string{
		"x.go": "alpha\nalpha beta\nalpha beta\nbeta\n",
	})
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "alpha beta"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	// Lines 2 and 3 both contain both keywords; the earlier one wins.
	assert.Equal(t, 2, resp.Results[0].Line)
	assert.Equal(t, "alpha beta", resp.Results[0].Preview)
}

func TestSearch_CaseFolding(t *testing.T) {
	st := newTestStore(map[string]string{
		"h.go": "func HandleRequest(w ResponseWriter) {}\n",
	})
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "HANDLEREQUEST"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "h.go", resp.Results[0].Path)
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := NewSearcher(store.New(), nil)

	_, err := s.Search(context.Background(), SearchRequest{Query: "   "})
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestSearch_RankingAndTieBreak(t *testing.T) {
	st := newTestStore(map[string]string{
		"zebra.go": "cache\n",
		"apple.go": "cache\n",
		"rich.go":  "cache eviction\n",
	})
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "cache"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	// Equal scores sort by path for deterministic output.
	assert.Equal(t, "apple.go", resp.Results[0].Path)
	assert.Equal(t, "rich.go", resp.Results[1].Path)
	assert.Equal(t, "zebra.go", resp.Results[2].Path)
}

func TestSearch_MaxResults(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < 30; i++ {
		files[fmt.Sprintf("f%02d.go", i)] = "needle\n"
	}
	st := newTestStore(files)
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "needle"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, DefaultMaxResults)

	resp, err = s.Search(context.Background(), SearchRequest{Query: "needle", MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestSearch_CacheHitAndInvalidate(t *testing.T) {
	st := newTestStore(map[string]string{"a.go": "widget\n"})
	s := NewSearcher(st, nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "widget"})
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)

	resp, err = s.Search(context.Background(), SearchRequest{Query: "widget"})
	require.NoError(t, err)
	assert.True(t, resp.CacheHit)

	// An index change purges the cache; the next search sees new data.
	st.Put(&types.FileRecord{Path: "b.go", Content: "widget\n"})
	s.InvalidateCache()

	resp, err = s.Search(context.Background(), SearchRequest{Query: "widget"})
	require.NoError(t, err)
	assert.False(t, resp.CacheHit)
	assert.Len(t, resp.Results, 2)
}

// fakeExpander returns canned terms or a canned error.
type fakeExpander struct {
	terms  []string
	err    error
	called bool
}

func (f *fakeExpander) Expand(ctx context.Context, query string) ([]string, error) {
	f.called = true
	return f.terms, f.err
}

func (f *fakeExpander) Provider() string { return "fake" }
func (f *fakeExpander) Close() error     { return nil }

func TestSearch_ExpansionAddsResults(t *testing.T) {
	st := newTestStore(map[string]string{
		"auth.go":    "func login() {}\n",
		"session.go": "type session struct{}\n",
	})
	exp := &fakeExpander{terms: []string{"session"}}
	s := NewSearcher(st, exp)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "login", UseExpansion: true})
	require.NoError(t, err)
	assert.True(t, exp.called)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "auth.go", resp.Results[0].Path)
	assert.Equal(t, "session.go", resp.Results[1].Path)
	assert.Equal(t, []string{"session"}, resp.ExpandedTerms)
}

func TestSearch_ExpansionDeduplicates(t *testing.T) {
	st := newTestStore(map[string]string{
		"auth.go": "func login() { startSession() }\n",
	})
	exp := &fakeExpander{terms: []string{"session"}}
	s := NewSearcher(st, exp)

	// auth.go matches both the base query and the expanded term at the
	// same line; it must appear once.
	resp, err := s.Search(context.Background(), SearchRequest{Query: "login", UseExpansion: true})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestSearch_ExpansionFailureKeepsBaseResults(t *testing.T) {
	st := newTestStore(map[string]string{
		"auth.go": "func login() {}\n",
	})
	exp := &fakeExpander{err: errors.New("provider down")}
	s := NewSearcher(st, exp)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "login", UseExpansion: true})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "auth.go", resp.Results[0].Path)
	assert.Empty(t, resp.ExpandedTerms)
}

func TestSearch_ExpansionSkippedWhenEnoughResults(t *testing.T) {
	files := make(map[string]string)
	for i := 0; i < expansionThreshold; i++ {
		files[fmt.Sprintf("f%d.go", i)] = "needle\n"
	}
	st := newTestStore(files)
	exp := &fakeExpander{terms: []string{"haystack"}}
	s := NewSearcher(st, exp)

	_, err := s.Search(context.Background(), SearchRequest{Query: "needle", UseExpansion: true})
	require.NoError(t, err)
	assert.False(t, exp.called)
}

func TestSearch_ExpansionNotRequested(t *testing.T) {
	st := newTestStore(map[string]string{"a.go": "rare\n"})
	exp := &fakeExpander{terms: []string{"unusual"}}
	s := NewSearcher(st, exp)

	_, err := s.Search(context.Background(), SearchRequest{Query: "rare"})
	require.NoError(t, err)
	assert.False(t, exp.called)
}

func TestSearch_ExpansionStopsAtMaxResults(t *testing.T) {
	st := newTestStore(map[string]string{
		"base.go":  "primary\n",
		"e1.go":    "secondary\n",
		"e2.go":    "secondary\n",
		"e3.go":    "secondary\n",
		"more.go":  "secondary\n",
		"extra.go": "secondary\n",
	})
	exp := &fakeExpander{terms: []string{"secondary"}}
	s := NewSearcher(st, exp)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "primary", UseExpansion: true, MaxResults: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, "base.go", resp.Results[0].Path)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, tokenize("  Foo   BAR "))
	assert.Equal(t, []string{"foo"}, tokenize("foo Foo FOO"))
	assert.Nil(t, tokenize("   "))
	assert.Nil(t, tokenize(""))
}
