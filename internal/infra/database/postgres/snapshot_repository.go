package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NealChanAI/stock-investment/internal/domain/snapshot"
)

// SnapshotRepository persists analysis runs (analysis.snapshots).
type SnapshotRepository struct {
	pool *Pool
}

// NewSnapshotRepository creates the repository.
func NewSnapshotRepository(pool *Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `
	run_id, anchor_date, stock_code, stock_name, industry,
	pettm, pbmrq,
	mean_pettm_5y, mean_pettm_10y, mean_pbmrq_5y, mean_pbmrq_10y,
	min_pettm_5y, min_pettm_10y, min_pbmrq_5y, min_pbmrq_10y,
	growth_rate_pct, peg,
	predict_return_5y_pct, predict_return_10y_pct,
	predict_pb_return_5y_pct, predict_pb_return_10y_pct,
	report_infos, created_at
`

// SaveBatch writes all snapshots of one run.
func (r *SnapshotRepository) SaveBatch(ctx context.Context, runID uuid.UUID, snaps []*snapshot.Snapshot) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO analysis.snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (run_id, stock_code) DO NOTHING
	`

	for _, s := range snaps {
		batch.Queue(query,
			runID, s.AnchorDate, s.StockCode, s.StockName, s.Industry,
			s.PeTTM, s.PbMRQ,
			s.MeanPeTTM5y, s.MeanPeTTM10y, s.MeanPbMRQ5y, s.MeanPbMRQ10y,
			s.MinPeTTM5y, s.MinPeTTM10y, s.MinPbMRQ5y, s.MinPbMRQ10y,
			s.GrowthRatePct, s.PEG,
			s.PredictReturn5yPct, s.PredictReturn10yPct,
			s.PredictPBReturn5yPct, s.PredictPBReturn10yPct,
			s.ReportInfos, s.CreatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range snaps {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("batch insert snapshot: %w", err)
		}
		count++
	}

	return count, nil
}

// GetLatestRun returns all snapshots of the most recent run.
func (r *SnapshotRepository) GetLatestRun(ctx context.Context) ([]*snapshot.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM analysis.snapshots
		WHERE run_id = (
			SELECT run_id FROM analysis.snapshots
			ORDER BY created_at DESC LIMIT 1
		)
		ORDER BY stock_code ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	defer rows.Close()

	var snaps []*snapshot.Snapshot
	for rows.Next() {
		var (
			s     snapshot.Snapshot
			runID uuid.UUID
		)
		if err := rows.Scan(
			&runID, &s.AnchorDate, &s.StockCode, &s.StockName, &s.Industry,
			&s.PeTTM, &s.PbMRQ,
			&s.MeanPeTTM5y, &s.MeanPeTTM10y, &s.MeanPbMRQ5y, &s.MeanPbMRQ10y,
			&s.MinPeTTM5y, &s.MinPeTTM10y, &s.MinPbMRQ5y, &s.MinPbMRQ10y,
			&s.GrowthRatePct, &s.PEG,
			&s.PredictReturn5yPct, &s.PredictReturn10yPct,
			&s.PredictPBReturn5yPct, &s.PredictPBReturn10yPct,
			&s.ReportInfos, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	if len(snaps) == 0 {
		return nil, snapshot.ErrNoResults
	}
	return snaps, nil
}

// GetByCode returns the most recent snapshot for one stock.
func (r *SnapshotRepository) GetByCode(ctx context.Context, code string) (*snapshot.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM analysis.snapshots
		WHERE stock_code = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		s     snapshot.Snapshot
		runID uuid.UUID
	)
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&runID, &s.AnchorDate, &s.StockCode, &s.StockName, &s.Industry,
		&s.PeTTM, &s.PbMRQ,
		&s.MeanPeTTM5y, &s.MeanPeTTM10y, &s.MeanPbMRQ5y, &s.MeanPbMRQ10y,
		&s.MinPeTTM5y, &s.MinPeTTM10y, &s.MinPbMRQ5y, &s.MinPbMRQ10y,
		&s.GrowthRatePct, &s.PEG,
		&s.PredictReturn5yPct, &s.PredictReturn10yPct,
		&s.PredictPBReturn5yPct, &s.PredictPBReturn10yPct,
		&s.ReportInfos, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, snapshot.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return &s, nil
}
