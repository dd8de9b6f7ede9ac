package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/trend-relay/internal/observability"
	"github.com/spf13/cobra"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "Show recorded scheduler cycles (requires record_runs)",
	Args:  cobra.NoArgs,
	RunE:  runHistoryCmd,
}

var (
	historyConfigPath  string
	historyLimit       int
	historyDatabaseURL string
)

func init() {
	historyCommand.Flags().StringVar(&historyConfigPath, "config", "", "Path to config.json file")
	historyCommand.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of cycles to show")
	historyCommand.Flags().StringVar(&historyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(historyConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = historyDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	database, err := connectDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	cycles, err := database.ListCycles(ctx, historyLimit)
	if err != nil {
		return err
	}
	observability.NewPrinter(os.Stdout).PrintCycles(cycles)
	return nil
}
