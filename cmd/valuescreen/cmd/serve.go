package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NealChanAI/stock-investment/internal/api"
	"github.com/NealChanAI/stock-investment/internal/domain/market"
	"github.com/NealChanAI/stock-investment/internal/infra/baostock"
	"github.com/NealChanAI/stock-investment/internal/infra/database/postgres"
	"github.com/NealChanAI/stock-investment/internal/infra/eastmoney"
	"github.com/NealChanAI/stock-investment/internal/pkg/export"
	"github.com/NealChanAI/stock-investment/internal/service/batch"
	"github.com/NealChanAI/stock-investment/internal/service/calendar"
	growthsvc "github.com/NealChanAI/stock-investment/internal/service/growth"
	metricssvc "github.com/NealChanAI/stock-investment/internal/service/metrics"
	snapshotsvc "github.com/NealChanAI/stock-investment/internal/service/snapshot"
)

var (
	serveRefreshList     string
	serveRefreshSchedule string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server with scheduled refresh",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveRefreshList, "refresh-list", "", "stock list CSV re-analyzed on the schedule")
	// Weekday evenings after the exchange close and the day's report
	// publications.
	serveCmd.Flags().StringVar(&serveRefreshSchedule, "refresh-schedule", "0 18 * * 1-5", "cron spec for the refresh job")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	snapRepo := postgres.NewSnapshotRepository(pool)
	server := api.NewServer(cfg, pool, snapRepo, version)

	var scheduler *cron.Cron
	if serveRefreshList != "" {
		job := newRefreshJob(pool)
		scheduler = cron.New()
		_, err := scheduler.AddFunc(serveRefreshSchedule, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
			defer cancel()
			if err := job.run(refreshCtx); err != nil {
				log.Error().Err(err).Msg("Scheduled refresh failed")
			}
		})
		if err != nil {
			return fmt.Errorf("schedule refresh %q: %w", serveRefreshSchedule, err)
		}
		scheduler.Start()
		log.Info().Str("schedule", serveRefreshSchedule).Str("stock_list", serveRefreshList).Msg("Refresh job scheduled")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// refreshJob re-analyzes the configured stock list on schedule. The
// cron spec only knows weekdays, so the job itself checks the exchange
// calendar and skips holidays.
type refreshJob struct {
	provider market.Provider
	calendar *calendar.Service
	runner   *batch.Runner
	listPath string
	now      func() time.Time
}

func newRefreshJob(pool *postgres.Pool) *refreshJob {
	provider := baostock.NewClientWithTimeout(cfg.Baostock.BaseURL, cfg.Baostock.Timeout)
	source := eastmoney.NewClientWithTimeout(cfg.Eastmoney.BaseURL, cfg.Eastmoney.Timeout)

	var seriesStore metricssvc.Store
	if cfg.Analysis.CacheEnabled {
		seriesStore = postgres.NewMetricsRepository(pool)
	}

	builder := snapshotsvc.NewBuilder(
		calendar.NewService(provider),
		metricssvc.NewService(provider, seriesStore),
		growthsvc.NewService(source),
		cfg.Analysis.SeriesFloorDate,
		cfg.Analysis.CalendarLookbackDays,
	)
	return &refreshJob{
		provider: provider,
		calendar: calendar.NewService(provider),
		runner:   batch.NewRunner(provider, builder, postgres.NewSnapshotRepository(pool), cfg.Analysis.Workers),
		listPath: serveRefreshList,
		now:      time.Now,
	}
}

func (j *refreshJob) run(ctx context.Context) error {
	today := j.now().Format(market.DateLayout)

	sess, err := j.provider.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	open, err := j.calendar.TradingDates(ctx, sess, today, today)
	j.provider.Logout(ctx, sess)
	if err != nil {
		return fmt.Errorf("check trading day: %w", err)
	}
	if len(open) == 0 {
		log.Info().Str("date", today).Msg("Market closed, refresh skipped")
		return nil
	}

	entries, err := export.ReadStockList(j.listPath)
	if err != nil {
		return err
	}
	report, err := j.runner.Run(ctx, export.Codes(entries), today)
	if err != nil {
		return err
	}
	log.Info().
		Str("run_id", report.RunID.String()).
		Int("analyzed", len(report.Snapshots())).
		Int("failed", report.Failures).
		Msg("Scheduled refresh complete")
	return nil
}
