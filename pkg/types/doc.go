// Package types defines the shared domain model for the index engine:
// file records, extracted symbols, search results, and the sentinel errors
// that cross package boundaries.
//
// The package has no dependencies on the rest of the module so that every
// internal package can import it without cycles.
package types
