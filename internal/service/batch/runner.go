package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/NealChanAI/stock-investment/internal/domain/market"
	domainsnapshot "github.com/NealChanAI/stock-investment/internal/domain/snapshot"
	snapshotsvc "github.com/NealChanAI/stock-investment/internal/service/snapshot"
)

// Store persists a finished run. nil disables persistence.
type Store interface {
	SaveBatch(ctx context.Context, runID uuid.UUID, snaps []*domainsnapshot.Snapshot) (int, error)
}

// Runner analyzes a list of stocks concurrently. Each worker item
// logs in for its own provider session and logs out when done, so a
// failed or expired session never poisons another stock.
type Runner struct {
	provider market.Provider
	builder  *snapshotsvc.Builder
	store    Store
	workers  int
}

// Result pairs one input code with its outcome. Failed stocks carry a
// nil Snapshot and a non-nil Err; the batch itself still succeeds.
type Result struct {
	Code     string
	Snapshot *domainsnapshot.Snapshot
	Err      error
}

// RunReport summarizes a finished batch.
type RunReport struct {
	RunID    uuid.UUID
	Date     string
	Results  []Result
	Elapsed  time.Duration
	Failures int
}

// NewRunner creates the batch runner. workers <= 0 means sequential.
func NewRunner(provider market.Provider, builder *snapshotsvc.Builder, store Store, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{provider: provider, builder: builder, store: store, workers: workers}
}

// Run builds a snapshot for every code as of date. Results come back in
// input order; per-stock failures are recorded and skipped, never
// fatal. Only a canceled context aborts the whole batch.
func (r *Runner) Run(ctx context.Context, codes []string, date string) (*RunReport, error) {
	runID := uuid.New()
	started := time.Now()

	log.Info().
		Str("run_id", runID.String()).
		Str("date", date).
		Int("stocks", len(codes)).
		Int("workers", r.workers).
		Msg("Batch analysis started")

	results := make([]Result, len(codes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap, err := r.analyzeOne(gctx, code, date)
			results[i] = Result{Code: code, Snapshot: snap, Err: err}
			if err != nil {
				log.Warn().Err(err).Str("code", code).Msg("Stock analysis failed, skipping")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch aborted: %w", err)
	}

	report := &RunReport{
		RunID:   runID,
		Date:    date,
		Results: results,
		Elapsed: time.Since(started),
	}
	var snaps []*domainsnapshot.Snapshot
	for _, res := range results {
		if res.Err != nil {
			report.Failures++
			continue
		}
		snaps = append(snaps, res.Snapshot)
	}

	if r.store != nil && len(snaps) > 0 {
		if saved, err := r.store.SaveBatch(ctx, runID, snaps); err != nil {
			log.Error().Err(err).Str("run_id", runID.String()).Int("saved", saved).Msg("Failed to persist run")
		}
	}

	log.Info().
		Str("run_id", runID.String()).
		Int("succeeded", len(snaps)).
		Int("failed", report.Failures).
		Dur("elapsed", report.Elapsed).
		Msg("Batch analysis finished")

	return report, nil
}

// analyzeOne runs the full pipeline for one stock inside its own
// provider session.
func (r *Runner) analyzeOne(ctx context.Context, code, date string) (*domainsnapshot.Snapshot, error) {
	sess, err := r.provider.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("login for %s: %w", code, err)
	}
	defer func() {
		if err := r.provider.Logout(ctx, sess); err != nil {
			log.Debug().Err(err).Str("code", code).Msg("Logout failed")
		}
	}()

	return r.builder.Build(ctx, sess, code, date)
}

// Snapshots returns the successful snapshots of a report, input order
// preserved.
func (r *RunReport) Snapshots() []*domainsnapshot.Snapshot {
	var snaps []*domainsnapshot.Snapshot
	for _, res := range r.Results {
		if res.Err == nil && res.Snapshot != nil {
			snaps = append(snaps, res.Snapshot)
		}
	}
	return snaps
}
