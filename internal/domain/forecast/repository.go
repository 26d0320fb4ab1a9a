package forecast

import (
	"context"
)

// Source is the analyst-report capability consumed by the growth
// estimator. Unlike the market-data provider it is sessionless.
type Source interface {
	// QueryAnalystReports returns all research report rows for a bare
	// 6-digit stock code, in source order.
	QueryAnalystReports(ctx context.Context, code string) ([]Report, error)

	// QueryStockProfile returns the stock's profile record. Callers
	// treat a failure here as non-fatal.
	QueryStockProfile(ctx context.Context, code string) (*Profile, error)
}
