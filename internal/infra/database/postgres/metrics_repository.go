package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NealChanAI/stock-investment/internal/domain/metrics"
)

// MetricsRepository caches daily valuation rows (analysis.daily_metrics)
// so repeated runs skip the provider round-trip.
type MetricsRepository struct {
	pool *Pool
}

// NewMetricsRepository creates the repository.
func NewMetricsRepository(pool *Pool) *MetricsRepository {
	return &MetricsRepository{pool: pool}
}

// UpsertBatch writes one stock's points, replacing existing rows per
// (stock_code, trade_date).
func (r *MetricsRepository) UpsertBatch(ctx context.Context, code string, points []metrics.Point) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO analysis.daily_metrics (stock_code, trade_date, pettm, pbmrq)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			pettm = EXCLUDED.pettm,
			pbmrq = EXCLUDED.pbmrq
	`

	for _, p := range points {
		batch.Queue(query, code, p.Date, p.PeTTM, p.PbMRQ)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range points {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("batch upsert metrics: %w", err)
		}
		count++
	}

	return count, nil
}

// GetSeries reads one stock's cached points in [from, to], ascending.
func (r *MetricsRepository) GetSeries(ctx context.Context, code string, from, to time.Time) (*metrics.Series, error) {
	query := `
		SELECT trade_date, pettm, pbmrq
		FROM analysis.daily_metrics
		WHERE stock_code = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("get cached series: %w", err)
	}
	defer rows.Close()

	series := &metrics.Series{Code: code}
	for rows.Next() {
		var p metrics.Point
		if err := rows.Scan(&p.Date, &p.PeTTM, &p.PbMRQ); err != nil {
			return nil, fmt.Errorf("scan cached point: %w", err)
		}
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached points: %w", err)
	}

	return series, nil
}
