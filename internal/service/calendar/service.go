package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/market"
)

// DefaultLookbackDays covers ordinary holiday runs. Batch analysis uses
// a wider margin (see config) to ride out the Lunar New Year closure.
const DefaultLookbackDays = 30

// Service resolves trading dates against the provider calendar.
// Stateless: every call is an independent idempotent query.
type Service struct {
	provider market.Provider
}

// NewService creates the calendar service.
func NewService(provider market.Provider) *Service {
	return &Service{provider: provider}
}

// LastTradingDateOnOrBefore returns the latest trading day <= date,
// searching the window [date-lookbackDays, date]. Dates are ISO strings
// throughout, so their lexicographic order is chronological.
func (s *Service) LastTradingDateOnOrBefore(ctx context.Context, sess *market.Session, date string, lookbackDays int) (string, error) {
	t, err := time.Parse(market.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", market.ErrMalformedDate, date)
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	start := t.AddDate(0, 0, -lookbackDays).Format(market.DateLayout)
	days, err := s.provider.QueryTradeDates(ctx, sess, start, date)
	if err != nil {
		return "", fmt.Errorf("query trade dates: %w", err)
	}

	best := ""
	for _, d := range days {
		if !d.Trading || d.Date > date {
			continue
		}
		if d.Date > best {
			best = d.Date
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w: [%s, %s]", market.ErrNoTradingDay, start, date)
	}

	log.Debug().
		Str("date", date).
		Str("resolved", best).
		Int("lookback_days", lookbackDays).
		Msg("Resolved anchor trading date")

	return best, nil
}

// TradingDates returns all trading days in [start, end], ascending.
func (s *Service) TradingDates(ctx context.Context, sess *market.Session, start, end string) ([]string, error) {
	if _, err := time.Parse(market.DateLayout, start); err != nil {
		return nil, fmt.Errorf("%w: %q", market.ErrMalformedDate, start)
	}
	if _, err := time.Parse(market.DateLayout, end); err != nil {
		return nil, fmt.Errorf("%w: %q", market.ErrMalformedDate, end)
	}

	days, err := s.provider.QueryTradeDates(ctx, sess, start, end)
	if err != nil {
		return nil, fmt.Errorf("query trade dates: %w", err)
	}

	dates := make([]string, 0, len(days))
	for _, d := range days {
		if d.Trading && d.Date <= end {
			dates = append(dates, d.Date)
		}
	}
	return dates, nil
}
