// Package indexer coordinates the end-to-end indexing pipeline for a
// workspace.
//
// A Service ties the crawler, filter, extractor, and store together and
// owns snapshot persistence. Full rebuilds run file batches through a
// bounded worker pool; single-file updates replace one record in place.
//
// # Basic Usage
//
//	svc, err := indexer.New(indexer.Options{
//	    Root:         "/path/to/workspace",
//	    Store:        st,
//	    Filter:       f,
//	    Extractor:    ext,
//	    SnapshotPath: snapPath,
//	})
//
//	stats, err := svc.LoadOrRebuild(ctx)
//
// # Rebuild Semantics
//
// Only one full rebuild runs at a time; a concurrent Reindex call fails
// fast with types.ErrRebuildInProgress rather than queueing. A cancelled
// rebuild keeps whatever was indexed so far, and the on-disk snapshot is
// only replaced after a rebuild completes.
package indexer
