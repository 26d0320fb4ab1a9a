package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NealChanAI/stock-investment/internal/infra/database/postgres"
	"github.com/NealChanAI/stock-investment/internal/pkg/export"
	"github.com/NealChanAI/stock-investment/internal/service/screen"
)

var screenName string

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Re-screen the latest stored analysis run",
	RunE:  runScreen,
}

func init() {
	screenCmd.Flags().StringVar(&screenName, "name", "all_stocks", "output file base name")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	snaps, err := postgres.NewSnapshotRepository(pool).GetLatestRun(ctx)
	if err != nil {
		return err
	}

	results := screen.NewEngine(nil).Screen(snaps)
	if len(results) == 0 {
		log.Info().Int("evaluated", len(snaps)).Msg("No stock matched any rule")
		return nil
	}

	writer, err := export.NewSnapshotWriter(cfg.Analysis.OutputDir)
	if err != nil {
		return err
	}
	path, err := writer.WriteScreening(screenName, results)
	if err != nil {
		return err
	}

	log.Info().Str("path", path).Int("matched", len(results)).Msg("Screening complete")
	return nil
}
