package main

import (
	"context"
	"fmt"

	"github.com/jonathan/trend-relay/internal/config"
	"github.com/jonathan/trend-relay/internal/db"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/observability"
	"github.com/jonathan/trend-relay/internal/types"
	"github.com/spf13/cobra"
)

var ledgerCommand = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or edit the processed-video ledger",
}

var ledgerListCommand = &cobra.Command{
	Use:   "list",
	Short: "Show the most recently processed video ids",
	Args:  cobra.NoArgs,
	RunE:  runLedgerList,
}

var ledgerCheckCommand = &cobra.Command{
	Use:   "check <video-id>...",
	Short: "Report whether video ids were already processed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLedgerCheck,
}

var ledgerAddCommand = &cobra.Command{
	Use:   "add <video-id>...",
	Short: "Mark video ids as processed so they are never republished",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLedgerAdd,
}

var (
	ledgerConfigPath string
	ledgerPath       string
)

func init() {
	ledgerCommand.PersistentFlags().StringVar(&ledgerConfigPath, "config", "", "Path to config.json file")
	ledgerCommand.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Path to the processed-video ledger file")

	ledgerCommand.AddCommand(ledgerListCommand, ledgerCheckCommand, ledgerAddCommand)
	rootCmd.AddCommand(ledgerCommand)
}

// withLedger opens the configured ledger, runs fn, and releases resources.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, l ledger.Ledger, source string) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ledgerConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ledger") {
		cfg.LedgerPath = ledgerPath
		cfg.LedgerBackend = config.LedgerBackendFile
	}

	var database *db.DB
	if cfg.LedgerBackend == config.LedgerBackendPostgres {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("ledger_backend 'postgres' requires database_url (or DATABASE_URL)")
		}
		database, err = connectDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
	}

	l, source, err := openLedger(ctx, &cfg, database)
	if err != nil {
		logLedgerHalt(err)
		return err
	}
	return fn(ctx, l, source)
}

func runLedgerList(cmd *cobra.Command, _ []string) error {
	return withLedger(cmd, func(_ context.Context, l ledger.Ledger, source string) error {
		observability.NewPrinter(cmd.OutOrStdout()).PrintLedger(source, l.IDs())
		return nil
	})
}

func runLedgerCheck(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(_ context.Context, l ledger.Ledger, _ string) error {
		out := cmd.OutOrStdout()
		for _, id := range args {
			status := "new"
			if l.Contains(id) {
				status = "processed"
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", id, status)
		}
		return nil
	})
}

func runLedgerAdd(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l ledger.Ledger, source string) error {
		out := cmd.OutOrStdout()
		for _, id := range args {
			if err := (types.VideoCandidate{ID: id}).Validate(); err != nil {
				return fmt.Errorf("refusing to add %q: %w", id, err)
			}
			if l.Contains(id) {
				_, _ = fmt.Fprintf(out, "%s\talready present\n", id)
				continue
			}
			if err := l.Commit(ctx, id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "%s\tadded\n", id)
		}
		_, _ = fmt.Fprintf(out, "%s now holds %d ids\n", source, l.Len())
		return nil
	})
}
