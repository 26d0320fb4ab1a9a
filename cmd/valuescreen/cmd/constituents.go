package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/NealChanAI/stock-investment/internal/domain/market"
	"github.com/NealChanAI/stock-investment/internal/infra/baostock"
)

var (
	constituentsIndex  string
	constituentsOutput string
)

var constituentsCmd = &cobra.Command{
	Use:   "constituents",
	Short: "Download index constituents as a stock list CSV",
	RunE:  runConstituents,
}

func init() {
	constituentsCmd.Flags().StringVar(&constituentsIndex, "index", market.IndexHS300, "index id: hs300, zz500 or sz50")
	constituentsCmd.Flags().StringVar(&constituentsOutput, "output", "", "output CSV path (default <index>_stock_list.csv in the output dir)")
}

func runConstituents(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !market.ValidIndex(constituentsIndex) {
		return fmt.Errorf("%w: %q", market.ErrInvalidIndex, constituentsIndex)
	}

	provider := baostock.NewClientWithTimeout(cfg.Baostock.BaseURL, cfg.Baostock.Timeout)
	sess, err := provider.Login(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Logout(ctx, sess); err != nil {
			log.Debug().Err(err).Msg("Logout failed")
		}
	}()

	constituents, err := provider.QueryIndexConstituents(ctx, sess, constituentsIndex)
	if err != nil {
		return err
	}
	if len(constituents) == 0 {
		return fmt.Errorf("index %s returned no constituents", constituentsIndex)
	}

	path := constituentsOutput
	if path == "" {
		if err := os.MkdirAll(cfg.Analysis.OutputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		path = filepath.Join(cfg.Analysis.OutputDir, constituentsIndex+"_stock_list.csv")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"code", "code_name"}); err != nil {
		return err
	}
	for _, c := range constituents {
		if err := w.Write([]string{c.Code, c.Name}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Info().Str("index", constituentsIndex).Str("path", path).Int("stocks", len(constituents)).Msg("Constituents written")
	return nil
}
