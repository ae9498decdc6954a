// Package crawler walks a workspace tree and produces batches of paths
// that pass the file filter. Batching keeps discovery from monopolizing
// the caller: consumers interleave extraction work between batches, and a
// full pass is cancellable at every batch boundary.
package crawler

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/codescout/codescout-mcp/internal/filter"
)

// DefaultBatchSize is the number of paths yielded per batch.
const DefaultBatchSize = 10

// Crawler discovers indexable files under a workspace root.
type Crawler struct {
	filter    *filter.Filter
	batchSize int
}

// New creates a Crawler using the given filter. batchSize <= 0 selects
// DefaultBatchSize.
func New(f *filter.Filter, batchSize int) *Crawler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Crawler{filter: f, batchSize: batchSize}
}

// Crawl walks root and sends batches of eligible paths on the returned
// channel. The channel is closed when the walk finishes, the context is
// cancelled, or the root itself cannot be read; the stream is finite and
// not restartable. Unreadable entries below the root are skipped.
func (c *Crawler) Crawl(ctx context.Context, root string) <-chan []string {
	out := make(chan []string)

	go func() {
		defer close(out)

		batch := make([]string, 0, c.batchSize)
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}
			select {
			case out <- batch:
				batch = make([]string, 0, c.batchSize)
				return true
			case <-ctx.Done():
				return false
			}
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Skip unreadable entries; partial coverage is fine.
				return nil
			}
			if d.IsDir() {
				if path != root && c.filter.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !c.filter.Eligible(path) {
				return nil
			}

			batch = append(batch, path)
			if len(batch) >= c.batchSize {
				if !flush() {
					return filepath.SkipAll
				}
			}
			return nil
		})

		flush()
	}()

	return out
}
