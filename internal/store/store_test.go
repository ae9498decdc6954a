package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codescout/codescout-mcp/pkg/types"
)

func record(path, content string) *types.FileRecord {
	return &types.FileRecord{
		Path:      path,
		Content:   content,
		Size:      int64(len(content)),
		IndexedAt: time.Now(),
	}
}

func TestStore_PutGetRemove(t *testing.T) {
	s := New()

	s.Put(record("/ws/a.go", "package a"))
	assert.Equal(t, 1, s.Len())
	assert.NotNil(t, s.Get("/ws/a.go"))
	assert.Nil(t, s.Get("/ws/missing.go"))

	// Put replaces wholesale.
	s.Put(record("/ws/a.go", "package a // v2"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "package a // v2", s.Get("/ws/a.go").Content)

	s.Remove("/ws/a.go")
	assert.Equal(t, 0, s.Len())
	s.Remove("/ws/a.go") // idempotent
}

func TestStore_ClearAndAll(t *testing.T) {
	s := New()
	s.Put(record("/ws/a.go", "a"))
	s.Put(record("/ws/b.go", "b"))

	assert.Len(t, s.All(), 2)

	s.Clear()
	assert.Empty(t, s.All())
	assert.Equal(t, 0, s.Len())
}

func TestStore_Stats(t *testing.T) {
	s := New()
	a := record("/ws/a.go", "a")
	a.Symbols = []types.Symbol{{Name: "A", Kind: types.KindFunction, Line: 1}}
	b := record("/ws/b.go", "b")
	b.Symbols = []types.Symbol{
		{Name: "B", Kind: types.KindClass, Line: 1},
		{Name: "C", Kind: types.KindMethod, Line: 2},
	}
	b.IndexedAt = a.IndexedAt.Add(time.Minute)
	s.Put(a)
	s.Put(b)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 3, stats.Symbols)
	assert.Equal(t, b.IndexedAt, stats.LastIndexed)
}

func TestStore_ConcurrentReadsDuringWrites(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Put(record("/ws/hot.go", "v"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = s.All()
			_ = s.Get("/ws/hot.go")
			_ = s.Stats()
		}
	}()
	wg.Wait()

	assert.Equal(t, 1, s.Len())
}
