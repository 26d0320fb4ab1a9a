// Package cmd - valuescreen CLI commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NealChanAI/stock-investment/internal/pkg/config"
	"github.com/NealChanAI/stock-investment/internal/pkg/logger"
)

var (
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "valuescreen",
	Short: "A-share valuation analysis and screening",
	Long: `valuescreen - A-share valuation analysis and screening

Commands:
    analyze         run valuation analysis over a stock list
    screen          re-screen the latest stored run
    constituents    download index constituents as a stock list
    serve           run the API server with scheduled refresh
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(constituentsCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig loads .env configuration and sets up logging.
func initConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logger.Init(logger.Config{
		Level:          level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		RotationSize:   cfg.Logging.RotationSize,
		RetentionDays:  cfg.Logging.RetentionDays,
		ServiceName:    "valuescreen",
		ServiceVersion: version,
	})
}

// version is stamped by the build; "dev" for local runs.
var version = "dev"
