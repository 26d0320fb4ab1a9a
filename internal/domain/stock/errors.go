package stock

import "errors"

// Domain errors
var (
	ErrMalformedCode = errors.New("malformed stock code, want 6 digits")
)
