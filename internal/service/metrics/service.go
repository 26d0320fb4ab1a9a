package metrics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/NealChanAI/stock-investment/internal/domain/market"
	"github.com/NealChanAI/stock-investment/internal/domain/metrics"
)

// queryFields is the column set requested from the provider for every
// history fetch. Positions in the response rowset may differ, the
// client maps them by name.
var queryFields = []string{"date", "code", "peTTM", "pbMRQ"}

// Store caches fetched series so repeated runs against the same anchor
// do not hit the upstream again.
type Store interface {
	GetSeries(ctx context.Context, code string, from, to time.Time) (*metrics.Series, error)
	UpsertBatch(ctx context.Context, code string, points []metrics.Point) (int, error)
}

// Service fetches per-stock valuation history and normalizes it into
// typed points.
type Service struct {
	provider market.Provider
	store    Store // nil disables caching
}

// NewService creates the metrics service. store may be nil.
func NewService(provider market.Provider, store Store) *Service {
	return &Service{provider: provider, store: store}
}

// Fetch returns the daily peTTM/pbMRQ series for code over [from, to],
// ascending by date. Unparseable numeric cells become nil, never an
// error; a series with zero rows is ErrEmptySeries.
func (s *Service) Fetch(ctx context.Context, sess *market.Session, code, from, to string) (*metrics.Series, error) {
	if from > to {
		return nil, fmt.Errorf("%w: [%s, %s]", metrics.ErrInvalidDateRange, from, to)
	}

	if s.store != nil {
		if series := s.fromCache(ctx, code, from, to); series != nil {
			return series, nil
		}
	}

	rows, err := s.provider.QueryHistoryDailyMetrics(ctx, sess, code, from, to, queryFields)
	if err != nil {
		return nil, fmt.Errorf("query history metrics for %s: %w", code, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s [%s, %s]", metrics.ErrEmptySeries, code, from, to)
	}

	points := make([]metrics.Point, 0, len(rows))
	for _, row := range rows {
		d, err := time.Parse(market.DateLayout, row.Date)
		if err != nil {
			log.Warn().Str("code", code).Str("date", row.Date).Msg("Skipping row with malformed date")
			continue
		}
		points = append(points, metrics.Point{
			Date:  d,
			PeTTM: coerceFloat(row.PeTTM),
			PbMRQ: coerceFloat(row.PbMRQ),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s [%s, %s]", metrics.ErrEmptySeries, code, from, to)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if s.store != nil {
		if _, err := s.store.UpsertBatch(ctx, code, points); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("Failed to cache metric series")
		}
	}

	return &metrics.Series{Code: code, Points: points}, nil
}

// fromCache returns the cached series only when it actually reaches the
// requested end date; a shorter cache means the upstream has newer rows.
func (s *Service) fromCache(ctx context.Context, code, from, to string) *metrics.Series {
	fromT, err1 := time.Parse(market.DateLayout, from)
	toT, err2 := time.Parse(market.DateLayout, to)
	if err1 != nil || err2 != nil {
		return nil
	}
	series, err := s.store.GetSeries(ctx, code, fromT, toT)
	if err != nil || series == nil || series.Len() == 0 {
		return nil
	}
	last := series.Points[series.Len()-1].Date.Format(market.DateLayout)
	if last < to {
		return nil
	}
	log.Debug().Str("code", code).Int("points", series.Len()).Msg("Metric series served from cache")
	return series
}

// coerceFloat parses a numeric cell, mapping empty and malformed text
// to nil rather than failing the whole series.
func coerceFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
