package metrics

import "errors"

// Domain errors
var (
	// Series errors
	ErrEmptySeries      = errors.New("metric series is empty")
	ErrInvalidDateRange = errors.New("invalid date range")

	// Snapshot build errors
	ErrAnchorNotInSeries = errors.New("anchor date not present in metric series")
)
