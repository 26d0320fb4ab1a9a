package forecast

import "errors"

// Domain errors
var (
	ErrNoForecastData  = errors.New("no analyst forecast data for stock")
	ErrProfileNotFound = errors.New("stock profile not found")
)
