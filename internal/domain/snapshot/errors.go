package snapshot

import "errors"

// Domain errors
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrNoResults        = errors.New("no analysis results available")
)
