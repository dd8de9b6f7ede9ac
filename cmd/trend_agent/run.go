package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/trend-relay/internal/auth"
	"github.com/jonathan/trend-relay/internal/command"
	"github.com/jonathan/trend-relay/internal/config"
	"github.com/jonathan/trend-relay/internal/db"
	"github.com/jonathan/trend-relay/internal/discovery"
	"github.com/jonathan/trend-relay/internal/download"
	"github.com/jonathan/trend-relay/internal/llm"
	"github.com/jonathan/trend-relay/internal/observability"
	"github.com/jonathan/trend-relay/internal/pipeline"
	"github.com/jonathan/trend-relay/internal/publish"
	"github.com/jonathan/trend-relay/internal/scheduler"
	"github.com/jonathan/trend-relay/internal/transform"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Watch the trending chart and republish new videos",
	Long: `Runs the scheduler loop: on every wake it fetches the trending chart for a
region, drops videos that were already published or are too long, and sends the
rest through download -> transform -> publish -> commit.

Configuration can be loaded from a JSON file using --config. Command-line flags
override config file values. SIGINT/SIGTERM let the current video finish and
then stop.`,
	RunE: runAgentCmd,
}

var (
	runConfigPath  string
	runOnce        bool
	runDryRun      bool
	runVerbose     bool
	runRegion      string
	runMaxDuration float64
	runStages      []string
	runLedgerPath  string
	runAPIKey      string
	runDatabaseURL string
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().BoolVar(&runOnce, "once", false, "Run a single cycle and exit")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Download and transform but never publish or commit")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress and summaries")
	runCommand.Flags().StringVarP(&runRegion, "region", "r", "", "Fixed trending region (switches region_policy to fixed)")
	runCommand.Flags().Float64Var(&runMaxDuration, "max-duration", 0, "Maximum source duration in seconds (0 disables the ceiling)")
	runCommand.Flags().StringSliceVar(&runStages, "stages", nil, "Ordered transform stages (trim,watermark,voiceover,title)")
	runCommand.Flags().StringVar(&runLedgerPath, "ledger", "", "Path to the processed-video ledger file")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for the postgres ledger and run history
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// applyRunFlags overrides cfg with flags the user explicitly set.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = runDryRun
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("region") {
		cfg.RegionPolicy = scheduler.RegionPolicyFixed
		cfg.Region = runRegion
	}
	if cmd.Flags().Changed("max-duration") {
		cfg.MaxDurationSeconds = config.Float(runMaxDuration)
	}
	if cmd.Flags().Changed("stages") {
		cfg.Stages = runStages
	}
	if cmd.Flags().Changed("ledger") {
		cfg.LedgerPath = runLedgerPath
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
}

func runAgentCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 1: Config
	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Verbose && runConfigPath != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
	}

	// Step 2: Database (postgres ledger and/or run history)
	var database *db.DB
	if needsDatabase(&cfg) {
		database, err = connectDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
	}

	// Step 3: Ledger. An unreadable ledger halts startup.
	led, ledgerSource, err := openLedger(ctx, &cfg, database)
	if err != nil {
		logLedgerHalt(err)
		return err
	}
	fmt.Printf("Ledger: %s (%d processed)\n", ledgerSource, led.Len())

	// Step 4: Credentials. Uploads always need OAuth; discovery can use an API key.
	var oauthClient *http.Client
	if !cfg.DryRun || cfg.YouTubeAPIKey == "" {
		tokens, err := auth.NewFileTokenProvider(cfg.ClientSecretsPath, cfg.TokenPath, auth.Scopes...)
		if err != nil {
			return err
		}
		if _, err := tokens.Token(ctx); err != nil {
			return err
		}
		oauthClient = tokens.Client(ctx)
	}

	discoveryOpts := []option.ClientOption{option.WithHTTPClient(oauthClient)}
	if cfg.YouTubeAPIKey != "" {
		discoveryOpts = []option.ClientOption{option.WithAPIKey(cfg.YouTubeAPIKey)}
	}
	discoverer, err := discovery.NewYouTubeDiscoverer(ctx, discoveryOpts...)
	if err != nil {
		return err
	}

	var publisher publish.Publisher
	if oauthClient != nil {
		publisher, err = publish.NewYouTubePublisher(ctx, publish.UploadOptions{
			CategoryID:    cfg.Upload.CategoryID,
			PrivacyStatus: cfg.Upload.PrivacyStatus,
			MadeForKids:   cfg.Upload.MadeForKids,
		}, option.WithHTTPClient(oauthClient))
		if err != nil {
			return err
		}
	}

	// Step 5: Media tools and transform chain
	runner := command.ExecRunner{Verbose: cfg.Verbose}
	downloader := download.New(runner)
	downloader.Path = cfg.YtdlpPath

	ff := transform.NewFFmpeg(runner)
	ff.Path = cfg.FFmpegPath
	ff.ProbePath = cfg.FFprobePath
	ff.Verbose = cfg.Verbose

	var llmClient llm.Client
	if cfg.HasStage(transform.StageTitle) {
		gemini, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = gemini.Close() }()
		llmClient = gemini
	}
	stages, err := buildStages(&cfg, ff, llmClient)
	if err != nil {
		return err
	}

	// Step 6: Pipeline and scheduler
	printer := observability.NewPrinter(os.Stdout)
	proc := &pipeline.Runner{
		Ledger:             led,
		Downloader:         downloader,
		Stages:             stages,
		Publisher:          publisher,
		WorkDir:            cfg.WorkDir,
		DryRun:             cfg.DryRun,
		DefaultDescription: defaultDescription(&cfg),
		ExtraTags:          cfg.Upload.Tags,
	}
	if cfg.Verbose {
		proc.OnProgress = printer.PrintProgress
		proc.OnMetadata = printer.PrintMetadata
		proc.OnResult = printer.PrintResult
	}

	schedule, err := buildSchedule(&cfg)
	if err != nil {
		return err
	}

	loop := &scheduler.Loop{
		Discoverer:  discoverer,
		Ledger:      led,
		Processor:   proc,
		Schedule:    schedule,
		Clock:       scheduler.SystemClock{},
		Regions:     regionPicker(&cfg, seedNow()),
		MaxResults:  cfg.MaxResults,
		Constraints: pipeline.Constraints{MaxDurationSeconds: cfg.MaxDuration()},
		Backoff:     buildBackoff(&cfg),
		RunOnStart:  cfg.RunOnStart(),
	}
	if cfg.Verbose {
		loop.OnCandidates = printer.PrintCandidates
		loop.OnCycle = printer.PrintCycleSummary
	}
	if cfg.RecordRuns {
		loop.Recorder = database
	}

	fmt.Printf("Stages: %v  Max duration: %.0fs  Dry run: %v\n", transform.Names(stages), cfg.MaxDuration(), cfg.DryRun)

	if runOnce {
		_, err := loop.RunCycle(ctx)
		return err
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}
	log.Printf("[SCHEDULER] Stopped")
	return nil
}
