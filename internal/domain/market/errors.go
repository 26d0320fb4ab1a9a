package market

import "errors"

// Domain errors
var (
	// Calendar errors
	ErrNoTradingDay = errors.New("no trading day found in lookback window")

	// Input errors
	ErrMalformedDate = errors.New("malformed date, want YYYY-MM-DD")
	ErrInvalidIndex  = errors.New("invalid index id")

	// Provider errors
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
	ErrSessionExpired      = errors.New("provider session expired")
	ErrLoginFailed         = errors.New("provider login failed")
)

// IsUpstreamError checks if the error is a transient provider failure.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrLoginFailed)
}
