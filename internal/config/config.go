// Package config provides configuration loading and validation for the CLI.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Ledger backends
const (
	LedgerBackendFile     = "file"
	LedgerBackendPostgres = "postgres"
)

// ScheduleConfig selects when cycles run.
type ScheduleConfig struct {
	Mode       string   `json:"mode,omitempty" validate:"omitempty,oneof=fixed continuous"`
	Times      []string `json:"times,omitempty" validate:"omitempty,dive,datetime=15:04"`
	Interval   Duration `json:"interval,omitempty"`
	RunOnStart *bool    `json:"run_on_start,omitempty"`
	// Timezone is an IANA name for fixed times; empty means local time.
	Timezone string `json:"timezone,omitempty"`
}

// BackoffConfig bounds the retry delay after a failed discovery.
type BackoffConfig struct {
	Initial Duration `json:"initial,omitempty"`
	Max     Duration `json:"max,omitempty"`
}

// TrimConfig configures the trim stage. The kept window is
// [start_seconds, end_seconds) of the source.
type TrimConfig struct {
	// StartSeconds is nil when unset; an explicit 0 keeps the opening.
	StartSeconds *float64 `json:"start_seconds,omitempty" validate:"omitempty,gte=0"`
	EndSeconds   float64  `json:"end_seconds,omitempty" validate:"gte=0"`
}

// WatermarkConfig configures the watermark stage.
type WatermarkConfig struct {
	Text      string `json:"text,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Position  string `json:"position,omitempty" validate:"omitempty,oneof=top-left top-right bottom-left bottom-right"`
	FontSize  int    `json:"font_size,omitempty" validate:"gte=0"`
}

// VoiceoverConfig configures the voiceover stage.
type VoiceoverConfig struct {
	NarrationPath string  `json:"narration_path,omitempty"`
	CTAPath       string  `json:"cta_path,omitempty"`
	CTASeconds    float64 `json:"cta_seconds,omitempty" validate:"gte=0"`
}

// TitleConfig configures the AI title stage.
type TitleConfig struct {
	ModelTier          string `json:"model_tier,omitempty" validate:"omitempty,oneof=lite standard"`
	DefaultDescription string `json:"default_description,omitempty"`
}

// UploadConfig holds fixed upload settings.
type UploadConfig struct {
	CategoryID    string   `json:"category_id,omitempty" validate:"omitempty,numeric"`
	PrivacyStatus string   `json:"privacy_status,omitempty" validate:"omitempty,oneof=public private unlisted"`
	MadeForKids   bool     `json:"made_for_kids,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Config represents the CLI configuration loaded from a JSON file.
// All fields are optional; missing values come from Defaults or CLI flags.
type Config struct {
	// State
	LedgerPath    string `json:"ledger_path,omitempty"`
	LedgerBackend string `json:"ledger_backend,omitempty" validate:"omitempty,oneof=file postgres"`
	DatabaseURL   string `json:"database_url,omitempty"`
	RecordRuns    bool   `json:"record_runs,omitempty"`
	WorkDir       string `json:"work_dir,omitempty"`

	// Discovery
	RegionPolicy string   `json:"region_policy,omitempty" validate:"omitempty,oneof=fixed random"`
	Region       string   `json:"region,omitempty" validate:"omitempty,len=2,alpha"`
	Regions      []string `json:"regions,omitempty" validate:"omitempty,dive,len=2,alpha"`
	MaxResults   int      `json:"max_results,omitempty" validate:"gte=0,lte=50"`
	// MaxDurationSeconds is nil when unset; an explicit 0 disables the ceiling.
	MaxDurationSeconds *float64 `json:"max_duration_seconds,omitempty" validate:"omitempty,gte=0"`

	// Loop
	Schedule ScheduleConfig `json:"schedule"`
	Backoff  BackoffConfig  `json:"backoff"`

	// Processing
	Stages    []string        `json:"stages,omitempty"`
	Trim      TrimConfig      `json:"trim"`
	Watermark WatermarkConfig `json:"watermark"`
	Voiceover VoiceoverConfig `json:"voiceover"`
	Title     TitleConfig     `json:"title"`
	Upload    UploadConfig    `json:"upload"`

	// Behavior
	DryRun  bool `json:"dry_run,omitempty"`
	Verbose bool `json:"verbose,omitempty"`

	// Credentials and tools
	APIKey            string `json:"api_key,omitempty"`         // Gemini API key
	YouTubeAPIKey     string `json:"youtube_api_key,omitempty"` // optional key for discovery
	ClientSecretsPath string `json:"client_secrets_path,omitempty"`
	TokenPath         string `json:"token_path,omitempty"`
	YtdlpPath         string `json:"ytdlp_path,omitempty"`
	FFmpegPath        string `json:"ffmpeg_path,omitempty"`
	FFprobePath       string `json:"ffprobe_path,omitempty"`
}

const (
	defaultMaxDurationSeconds = 300
	defaultTrimStartSeconds   = 5
)

// Defaults returns the configuration the original scripts hard-coded.
func Defaults() Config {
	runOnStart := true
	return Config{
		LedgerPath:         "processed_videos.json",
		LedgerBackend:      LedgerBackendFile,
		WorkDir:            "work",
		RegionPolicy:       "random",
		Region:             "US",
		Regions:            []string{"US", "IN", "GB", "CA", "FR", "DE", "AU", "JP", "KR"},
		MaxResults:         5,
		MaxDurationSeconds: Float(defaultMaxDurationSeconds),
		Schedule: ScheduleConfig{
			Mode:       "fixed",
			Times:      []string{"07:00", "10:00", "14:10", "16:00", "19:00"},
			Interval:   Duration{time.Hour},
			RunOnStart: &runOnStart,
		},
		Backoff: BackoffConfig{
			Initial: Duration{30 * time.Second},
			Max:     Duration{30 * time.Minute},
		},
		Stages:    []string{"trim", "title"},
		Trim:      TrimConfig{StartSeconds: Float(defaultTrimStartSeconds), EndSeconds: 60},
		Watermark: WatermarkConfig{Position: "bottom-right", FontSize: 36},
		Voiceover: VoiceoverConfig{CTASeconds: 5},
		Title:     TitleConfig{ModelTier: "standard"},
		Upload: UploadConfig{
			CategoryID:    "23",
			PrivacyStatus: "public",
		},
		ClientSecretsPath: "client_secrets.json",
		TokenPath:         "token.json",
		YtdlpPath:         "yt-dlp",
		FFmpegPath:        "ffmpeg",
		FFprobePath:       "ffprobe",
	}
}

// LoadConfig loads configuration from a JSON file. Unknown keys are an error
// so a misspelled option is not silently ignored.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv fills empty secrets from the environment.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.YouTubeAPIKey == "" {
		c.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// RunOnStart reports whether a cycle runs immediately at startup.
func (c *Config) RunOnStart() bool {
	return c.Schedule.RunOnStart == nil || *c.Schedule.RunOnStart
}

// MaxDuration returns the duration ceiling in seconds; 0 means no ceiling.
func (c *Config) MaxDuration() float64 {
	if c.MaxDurationSeconds == nil {
		return defaultMaxDurationSeconds
	}
	return *c.MaxDurationSeconds
}

// TrimStart returns where the trim window begins.
func (c *Config) TrimStart() float64 {
	if c.Trim.StartSeconds == nil {
		return defaultTrimStartSeconds
	}
	return *c.Trim.StartSeconds
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config error: unknown timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// HasStage reports whether name is in the configured stage list.
func (c *Config) HasStage(name string) bool {
	for _, s := range c.Stages {
		if s == name {
			return true
		}
	}
	return false
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. Pointer fields are unset only when nil, so an explicit zero
// survives. Bool fields cannot distinguish unset from false, so they are not
// merged; CLI flags win for those.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString(&result.LedgerPath, defaults.LedgerPath)
	mergeString(&result.LedgerBackend, defaults.LedgerBackend)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.WorkDir, defaults.WorkDir)
	mergeString(&result.RegionPolicy, defaults.RegionPolicy)
	mergeString(&result.Region, defaults.Region)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.YouTubeAPIKey, defaults.YouTubeAPIKey)
	mergeString(&result.ClientSecretsPath, defaults.ClientSecretsPath)
	mergeString(&result.TokenPath, defaults.TokenPath)
	mergeString(&result.YtdlpPath, defaults.YtdlpPath)
	mergeString(&result.FFmpegPath, defaults.FFmpegPath)
	mergeString(&result.FFprobePath, defaults.FFprobePath)

	if len(result.Regions) == 0 {
		result.Regions = defaults.Regions
	}
	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.MaxDurationSeconds == nil {
		result.MaxDurationSeconds = defaults.MaxDurationSeconds
	}
	if result.Stages == nil {
		result.Stages = defaults.Stages
	}

	// Schedule
	mergeString(&result.Schedule.Mode, defaults.Schedule.Mode)
	mergeString(&result.Schedule.Timezone, defaults.Schedule.Timezone)
	if len(result.Schedule.Times) == 0 {
		result.Schedule.Times = defaults.Schedule.Times
	}
	if result.Schedule.Interval.Duration == 0 {
		result.Schedule.Interval = defaults.Schedule.Interval
	}
	if result.Schedule.RunOnStart == nil {
		result.Schedule.RunOnStart = defaults.Schedule.RunOnStart
	}
	if result.Backoff.Initial.Duration == 0 {
		result.Backoff.Initial = defaults.Backoff.Initial
	}
	if result.Backoff.Max.Duration == 0 {
		result.Backoff.Max = defaults.Backoff.Max
	}

	// Stages
	if result.Trim.StartSeconds == nil {
		result.Trim.StartSeconds = defaults.Trim.StartSeconds
	}
	if result.Trim.EndSeconds == 0 {
		result.Trim.EndSeconds = defaults.Trim.EndSeconds
	}
	mergeString(&result.Watermark.Text, defaults.Watermark.Text)
	mergeString(&result.Watermark.ImagePath, defaults.Watermark.ImagePath)
	mergeString(&result.Watermark.Position, defaults.Watermark.Position)
	if result.Watermark.FontSize == 0 {
		result.Watermark.FontSize = defaults.Watermark.FontSize
	}
	mergeString(&result.Voiceover.NarrationPath, defaults.Voiceover.NarrationPath)
	mergeString(&result.Voiceover.CTAPath, defaults.Voiceover.CTAPath)
	if result.Voiceover.CTASeconds == 0 {
		result.Voiceover.CTASeconds = defaults.Voiceover.CTASeconds
	}
	mergeString(&result.Title.ModelTier, defaults.Title.ModelTier)
	mergeString(&result.Title.DefaultDescription, defaults.Title.DefaultDescription)

	// Upload
	mergeString(&result.Upload.CategoryID, defaults.Upload.CategoryID)
	mergeString(&result.Upload.PrivacyStatus, defaults.Upload.PrivacyStatus)
	if len(result.Upload.Tags) == 0 {
		result.Upload.Tags = defaults.Upload.Tags
	}

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
