package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jonathan/trend-relay/internal/auth"
	"github.com/spf13/cobra"
)

var authCommand = &cobra.Command{
	Use:   "auth",
	Short: "Authorize the channel and cache a refresh token",
	Long: `Runs the OAuth consent flow for the channel that receives uploads. Open the
printed URL in a browser, approve access, and the refresh token is written to
token_path. Run it once per machine, or again after revoking access.`,
	RunE: runAuthCmd,
}

var (
	authConfigPath  string
	authSecretsPath string
	authTokenPath   string
)

func init() {
	authCommand.Flags().StringVar(&authConfigPath, "config", "", "Path to config.json file")
	authCommand.Flags().StringVar(&authSecretsPath, "client-secrets", "", "Path to the OAuth client secrets JSON")
	authCommand.Flags().StringVar(&authTokenPath, "token", "", "Where to write the cached token")

	rootCmd.AddCommand(authCommand)
}

func runAuthCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(authConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("client-secrets") {
		cfg.ClientSecretsPath = authSecretsPath
	}
	if cmd.Flags().Changed("token") {
		cfg.TokenPath = authTokenPath
	}

	provider, err := auth.NewFileTokenProvider(cfg.ClientSecretsPath, cfg.TokenPath, auth.Scopes...)
	if err != nil {
		return err
	}

	fmt.Printf("Step 1/2: Requesting consent for %d scopes...\n", len(auth.Scopes))
	tok, err := auth.Consent(ctx, provider.Config(), os.Stdout)
	if err != nil {
		return err
	}

	fmt.Println("Step 2/2: Saving token...")
	if err := provider.Store(ctx, tok); err != nil {
		return err
	}

	fmt.Printf("✓ Token saved to %s\n", provider.TokenPath())
	return nil
}
