// Package main provides the entry point for the trend-relay agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trend_agent",
	Short: "Trending video relay",
	Long: `trend_agent watches a YouTube trending chart, downloads new short videos,
edits them, and republishes them to your channel. A durable ledger makes sure
no source video is ever published twice.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
