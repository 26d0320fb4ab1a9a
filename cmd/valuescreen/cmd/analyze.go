package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NealChanAI/stock-investment/internal/infra/baostock"
	"github.com/NealChanAI/stock-investment/internal/infra/database/postgres"
	"github.com/NealChanAI/stock-investment/internal/infra/eastmoney"
	"github.com/NealChanAI/stock-investment/internal/pkg/export"
	"github.com/NealChanAI/stock-investment/internal/service/batch"
	"github.com/NealChanAI/stock-investment/internal/service/calendar"
	growthsvc "github.com/NealChanAI/stock-investment/internal/service/growth"
	metricssvc "github.com/NealChanAI/stock-investment/internal/service/metrics"
	"github.com/NealChanAI/stock-investment/internal/service/screen"
	snapshotsvc "github.com/NealChanAI/stock-investment/internal/service/snapshot"
)

var (
	analyzeStockList string
	analyzeCodes     []string
	analyzeDate      string
	analyzeName      string
	analyzeFormat    string
	analyzeSave      bool
	analyzeWorkers   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run valuation analysis over a stock list",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStockList, "stock-list", "", "CSV stock list (code, code_name)")
	analyzeCmd.Flags().StringSliceVar(&analyzeCodes, "codes", nil, "stock codes, comma separated")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "anchor date YYYY-MM-DD (default today)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "all_stocks", "output file base name")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "xlsx", "output format: xlsx, csv or both")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the run to PostgreSQL")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "concurrent workers (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	codes, err := collectCodes()
	if err != nil {
		return err
	}
	date := analyzeDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	workers := analyzeWorkers
	if workers <= 0 {
		workers = cfg.Analysis.Workers
	}

	provider := baostock.NewClientWithTimeout(cfg.Baostock.BaseURL, cfg.Baostock.Timeout)
	source := eastmoney.NewClientWithTimeout(cfg.Eastmoney.BaseURL, cfg.Eastmoney.Timeout)

	var (
		pool        *postgres.Pool
		seriesStore metricssvc.Store
		runStore    batch.Store
	)
	if analyzeSave || cfg.Analysis.CacheEnabled {
		pool, err = postgres.NewPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if cfg.Analysis.CacheEnabled {
			seriesStore = postgres.NewMetricsRepository(pool)
		}
		if analyzeSave {
			runStore = postgres.NewSnapshotRepository(pool)
		}
	}

	builder := snapshotsvc.NewBuilder(
		calendar.NewService(provider),
		metricssvc.NewService(provider, seriesStore),
		growthsvc.NewService(source),
		cfg.Analysis.SeriesFloorDate,
		cfg.Analysis.CalendarLookbackDays,
	)
	runner := batch.NewRunner(provider, builder, runStore, workers)

	report, err := runner.Run(ctx, codes, date)
	if err != nil {
		return err
	}
	snaps := report.Snapshots()
	if len(snaps) == 0 {
		return fmt.Errorf("no stock produced a snapshot (%d failures)", report.Failures)
	}

	writer, err := export.NewSnapshotWriter(cfg.Analysis.OutputDir)
	if err != nil {
		return err
	}
	if analyzeFormat == "xlsx" || analyzeFormat == "both" {
		if _, err := writer.WriteXLSX(analyzeName, snaps); err != nil {
			return err
		}
	}
	if analyzeFormat == "csv" || analyzeFormat == "both" {
		if _, err := writer.WriteCSV(analyzeName, snaps); err != nil {
			return err
		}
	}

	results := screen.NewEngine(nil).Screen(snaps)
	if len(results) > 0 {
		if _, err := writer.WriteScreening(analyzeName, results); err != nil {
			return err
		}
	}

	log.Info().
		Str("run_id", report.RunID.String()).
		Int("analyzed", len(snaps)).
		Int("failed", report.Failures).
		Int("matched", len(results)).
		Msg("Analysis run complete")
	return nil
}

func collectCodes() ([]string, error) {
	if len(analyzeCodes) > 0 {
		return analyzeCodes, nil
	}
	if analyzeStockList == "" {
		return nil, fmt.Errorf("either --stock-list or --codes is required")
	}
	entries, err := export.ReadStockList(analyzeStockList)
	if err != nil {
		return nil, err
	}
	return export.Codes(entries), nil
}
