package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jonathan/trend-relay/internal/auth"
	"github.com/jonathan/trend-relay/internal/command"
	"github.com/jonathan/trend-relay/internal/config"
	"github.com/jonathan/trend-relay/internal/db"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/transform"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 10 * time.Second

var doctorCommand = &cobra.Command{
	Use:   "doctor",
	Short: "Check tools, credentials, and storage before running",
	Long: `Runs every startup dependency check concurrently and prints one line per
check: the configuration, yt-dlp/ffmpeg/ffprobe on PATH, the OAuth client
secrets and cached token, the ledger, and (when configured) the database.`,
	RunE: runDoctorCmd,
}

var doctorConfigPath string

func init() {
	doctorCommand.Flags().StringVar(&doctorConfigPath, "config", "", "Path to config.json file")

	rootCmd.AddCommand(doctorCommand)
}

// probe is one named dependency check.
type probe struct {
	Name  string
	Check func(ctx context.Context) (string, error)
}

// probeResult is the outcome of one probe.
type probeResult struct {
	Name   string
	Detail string
	Err    error
}

// runProbes runs every probe concurrently and returns results in probe order.
// A failing probe never cancels the others.
func runProbes(ctx context.Context, probes []probe) []probeResult {
	results := make([]probeResult, len(probes))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(4)
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			detail, err := p.Check(pctx)

			mu.Lock()
			results[i] = probeResult{Name: p.Name, Detail: detail, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// printProbeResults writes one line per result and reports how many failed.
func printProbeResults(out io.Writer, results []probeResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "✗ %-14s %v\n", r.Name, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(out, "✓ %-14s %s\n", r.Name, r.Detail)
	}
	return failed
}

// doctorProbes builds the checks relevant to cfg.
func doctorProbes(cfg *config.Config) []probe {
	probes := []probe{
		{Name: "config", Check: func(context.Context) (string, error) {
			if err := cfg.Validate(); err != nil {
				return "", err
			}
			return fmt.Sprintf("stages %v, schedule %s", cfg.Stages, cfg.Schedule.Mode), nil
		}},
		toolProbe("yt-dlp", cfg.YtdlpPath),
		toolProbe("ffmpeg", cfg.FFmpegPath),
		toolProbe("ffprobe", cfg.FFprobePath),
		{Name: "client secrets", Check: func(context.Context) (string, error) {
			if _, err := auth.NewFileTokenProvider(cfg.ClientSecretsPath, cfg.TokenPath, auth.Scopes...); err != nil {
				return "", err
			}
			return cfg.ClientSecretsPath, nil
		}},
		{Name: "token", Check: func(context.Context) (string, error) {
			tok, err := auth.LoadToken(cfg.TokenPath)
			if err != nil {
				return "", err
			}
			if tok.RefreshToken == "" {
				return cfg.TokenPath + " (no refresh token; will expire)", nil
			}
			return cfg.TokenPath, nil
		}},
	}

	if cfg.LedgerBackend != config.LedgerBackendPostgres {
		probes = append(probes, probe{Name: "ledger", Check: func(context.Context) (string, error) {
			l, err := ledger.OpenFile(cfg.LedgerPath)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%d processed)", l.Path(), l.Len()), nil
		}})
	}

	if cfg.DatabaseURL != "" {
		probes = append(probes, probe{Name: "database", Check: func(ctx context.Context) (string, error) {
			database, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return "", err
			}
			defer database.Close()
			if cfg.LedgerBackend == config.LedgerBackendPostgres {
				ids, err := database.ListProcessedVideoIDs(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("reachable, ledger holds %d ids", len(ids)), nil
			}
			return "reachable", nil
		}})
	}

	if cfg.HasStage(transform.StageTitle) {
		probes = append(probes, probe{Name: "gemini key", Check: func(context.Context) (string, error) {
			if cfg.APIKey == "" {
				return "", fmt.Errorf("title stage needs api_key or GEMINI_API_KEY")
			}
			return "set", nil
		}})
	}

	return probes
}

func toolProbe(name, path string) probe {
	return probe{Name: name, Check: func(context.Context) (string, error) {
		return command.LookPath(path)
	}}
}

func runDoctorCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(doctorConfigPath)
	if err != nil {
		return err
	}

	fmt.Println("Checking dependencies...")
	failed := printProbeResults(os.Stdout, runProbes(ctx, doctorProbes(&cfg)))
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Println("\n✅ All checks passed")
	return nil
}
