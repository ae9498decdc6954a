package types

import "errors"

// Caller-visible failures. Skip-and-continue conditions (unreadable file,
// oversized file, unsupported language, single parse failure) are plain
// control flow and have no sentinel.
var (
	// ErrWorkspaceInvalid indicates the workspace root is missing or not a
	// readable directory.
	ErrWorkspaceInvalid = errors.New("workspace root is invalid")

	// ErrRebuildInProgress indicates a full index pass is already running
	// for this workspace. At most one rebuild may be in flight.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")

	// ErrNoSnapshot indicates no usable snapshot exists: the file is
	// absent, corrupt, or carries an unrecognized version. Callers fall
	// back to a full rebuild.
	ErrNoSnapshot = errors.New("no usable index snapshot")

	// ErrSnapshotMismatch indicates the snapshot was written for a
	// different workspace root. Treated like ErrNoSnapshot by callers, but
	// kept distinct for logging.
	ErrSnapshotMismatch = errors.New("snapshot workspace mismatch")

	// ErrSaveFailed indicates the snapshot could not be written. The
	// in-memory index remains usable.
	ErrSaveFailed = errors.New("snapshot save failed")

	// ErrEmptyQuery indicates a search was requested with no keywords.
	ErrEmptyQuery = errors.New("query cannot be empty")
)
