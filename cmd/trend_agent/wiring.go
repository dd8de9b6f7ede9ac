package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/trend-relay/internal/config"
	"github.com/jonathan/trend-relay/internal/db"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/llm"
	"github.com/jonathan/trend-relay/internal/scheduler"
	"github.com/jonathan/trend-relay/internal/titling"
	"github.com/jonathan/trend-relay/internal/transform"
)

// loadConfig reads path (when set), fills defaults, and applies environment
// fallbacks. Callers apply flag overrides and then Validate.
func loadConfig(path string) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	return cfg, nil
}

// needsDatabase reports whether cfg requires a Postgres connection.
func needsDatabase(cfg *config.Config) bool {
	return cfg.LedgerBackend == config.LedgerBackendPostgres || cfg.RecordRuns
}

// connectDatabase opens the pool and creates missing tables.
func connectDatabase(ctx context.Context, url string) (*db.DB, error) {
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// openLedger opens the configured backend. database may be nil for the file
// backend.
func openLedger(ctx context.Context, cfg *config.Config, database *db.DB) (ledger.Ledger, string, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendPostgres:
		if database == nil {
			return nil, "", errors.New("postgres ledger needs a database connection")
		}
		l, err := ledger.OpenPostgres(ctx, database)
		if err != nil {
			return nil, "", err
		}
		return l, "postgres:processed_videos", nil
	default:
		l, err := ledger.OpenFile(cfg.LedgerPath)
		if err != nil {
			return nil, "", err
		}
		return l, l.Path(), nil
	}
}

// buildStages resolves cfg.Stages into a chain. client is only required when
// the title stage is configured.
func buildStages(cfg *config.Config, ff *transform.FFmpeg, client llm.Client) ([]transform.Stage, error) {
	available := map[string]transform.Stage{
		transform.StageTrim: &transform.Trim{
			FF:           ff,
			StartSeconds: cfg.TrimStart(),
			EndSeconds:   cfg.Trim.EndSeconds,
		},
		transform.StageWatermark: &transform.Watermark{
			FF:        ff,
			Text:      cfg.Watermark.Text,
			ImagePath: cfg.Watermark.ImagePath,
			Position:  cfg.Watermark.Position,
			FontSize:  cfg.Watermark.FontSize,
		},
		transform.StageVoiceover: &transform.Voiceover{
			FF:            ff,
			NarrationPath: cfg.Voiceover.NarrationPath,
			CTAPath:       cfg.Voiceover.CTAPath,
			CTASeconds:    cfg.Voiceover.CTASeconds,
			MaxSeconds:    cfg.MaxDuration(),
		},
	}

	if client != nil {
		tier, err := llm.ParseTier(cfg.Title.ModelTier)
		if err != nil {
			return nil, err
		}
		gen := titling.NewGenerator(client, tier)
		gen.DefaultDescription = defaultDescription(cfg)
		gen.ExtraTags = cfg.Upload.Tags
		available[transform.StageTitle] = gen
	}

	return transform.Chain(cfg.Stages, available)
}

func defaultDescription(cfg *config.Config) string {
	if cfg.Title.DefaultDescription != "" {
		return cfg.Title.DefaultDescription
	}
	return titling.DefaultDescription
}

// regionPicker builds the per-cycle region policy.
func regionPicker(cfg *config.Config, seed int64) scheduler.RegionPicker {
	if cfg.RegionPolicy == scheduler.RegionPolicyFixed {
		return scheduler.FixedRegion(cfg.Region)
	}
	return scheduler.NewRandomRegion(cfg.Regions, seed)
}

// buildSchedule builds the wake schedule in the configured timezone.
func buildSchedule(cfg *config.Config) (scheduler.Schedule, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return scheduler.NewSchedule(cfg.Schedule.Mode, cfg.Schedule.Times, cfg.Schedule.Interval.Duration, loc)
}

func buildBackoff(cfg *config.Config) *scheduler.Backoff {
	return &scheduler.Backoff{Initial: cfg.Backoff.Initial.Duration, Max: cfg.Backoff.Max.Duration}
}

// logLedgerHalt explains why startup stopped on an unreadable ledger.
func logLedgerHalt(err error) {
	var corrupt *ledger.LedgerCorruptError
	if errors.As(err, &corrupt) {
		log.Printf("[LEDGER] Refusing to start: the processed-video ledger is unreadable. Fix or restore it before running again, or every video would be republished.")
	}
}

// seedNow seeds random region selection.
func seedNow() int64 {
	return time.Now().UnixNano()
}
