package market

import (
	"time"
)

// DateLayout is the ISO date form used across the provider boundary.
const DateLayout = "2006-01-02"

// Session represents one authenticated connection to the market-data
// provider. Queries require a live session; sessions are not safe for
// concurrent use and must be scoped to one worker.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// TradeDay is one calendar entry of the trading calendar.
// Date keeps the provider's ISO string form; lexicographic order on it
// matches chronological order.
type TradeDay struct {
	Date    string `json:"calendar_date"`
	Trading bool   `json:"is_trading_day"`
}

// MetricRow is one raw row from the daily-metrics query, still in the
// provider's text form. Field coercion happens at the ingestion boundary,
// not here.
type MetricRow struct {
	Date  string `json:"date"`
	Code  string `json:"code"`
	PeTTM string `json:"peTTM"`
	PbMRQ string `json:"pbMRQ"`
}

// Constituent is one member of an index membership list.
type Constituent struct {
	Code string `json:"code"`
	Name string `json:"code_name"`
}

// Index identifiers accepted by QueryIndexConstituents.
const (
	IndexHS300 = "hs300"
	IndexZZ500 = "zz500"
	IndexSZ50  = "sz50"
)

// ValidIndex checks if the index id is one we can query.
func ValidIndex(id string) bool {
	switch id {
	case IndexHS300, IndexZZ500, IndexSZ50:
		return true
	default:
		return false
	}
}
