package market

import (
	"context"
)

// Provider is the market-data capability consumed by the analysis core.
// Every query takes an explicit Session acquired via Login and released
// via Logout; callers own the session lifecycle.
type Provider interface {
	// Login opens a provider session.
	Login(ctx context.Context) (*Session, error)

	// Logout releases a session. Safe to call with nil.
	Logout(ctx context.Context, sess *Session) error

	// QueryTradeDates returns all calendar entries in [start, end],
	// trading days and non-trading days alike.
	QueryTradeDates(ctx context.Context, sess *Session, start, end string) ([]TradeDay, error)

	// QueryHistoryDailyMetrics returns daily valuation rows for one stock
	// in [start, end]. Requested fields include at least date, peTTM and
	// pbMRQ; values come back as text.
	QueryHistoryDailyMetrics(ctx context.Context, sess *Session, code, start, end string, fields []string) ([]MetricRow, error)

	// QueryIndexConstituents returns the membership list of an index.
	QueryIndexConstituents(ctx context.Context, sess *Session, indexID string) ([]Constituent, error)
}
