package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	c := Defaults()
	c.APIKey = "test-key"
	return c
}

func TestValidate_Defaults(t *testing.T) {
	c := validConfig()
	assert.NoError(t, c.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"bad backend", func(c *Config) { c.LedgerBackend = "redis" }, "ledger_backend"},
		{"postgres without url", func(c *Config) { c.LedgerBackend = LedgerBackendPostgres }, "database_url"},
		{"record runs without url", func(c *Config) { c.RecordRuns = true }, "record_runs"},
		{"bad policy", func(c *Config) { c.RegionPolicy = "roundrobin" }, "region_policy"},
		{"bad region", func(c *Config) { c.Region = "USA" }, "region"},
		{"bad region list", func(c *Config) { c.Regions = []string{"US", "1"} }, "regions[1]"},
		{"fixed policy without region", func(c *Config) { c.RegionPolicy = "fixed"; c.Region = "" }, "requires 'region'"},
		{"too many results", func(c *Config) { c.MaxResults = 51 }, "max_results"},
		{"negative ceiling", func(c *Config) { c.MaxDurationSeconds = Float(-1) }, "max_duration_seconds"},
		{"bad mode", func(c *Config) { c.Schedule.Mode = "hourly" }, "schedule.mode"},
		{"bad time", func(c *Config) { c.Schedule.Times = []string{"7am"} }, "schedule.times[0]"},
		{"continuous without interval", func(c *Config) {
			c.Schedule.Mode = "continuous"
			c.Schedule.Interval = Duration{}
		}, "schedule.interval"},
		{"backoff inverted", func(c *Config) { c.Backoff.Max = Duration{c.Backoff.Initial.Duration / 2} }, "backoff.max"},
		{"unknown timezone", func(c *Config) { c.Schedule.Timezone = "Nowhere/Town" }, "timezone"},
		{"unknown stage", func(c *Config) { c.Stages = []string{"sparkles"} }, "unknown stage"},
		{"duplicate stage", func(c *Config) { c.Stages = []string{"trim", "trim"} }, "listed twice"},
		{"watermark without content", func(c *Config) { c.Stages = []string{"watermark"} }, "watermark.text"},
		{"bad watermark position", func(c *Config) { c.Watermark.Position = "center" }, "watermark.position"},
		{"voiceover without cta", func(c *Config) { c.Stages = []string{"voiceover"} }, "cta_path"},
		{"voiceover longer than ceiling", func(c *Config) {
			c.Stages = []string{"voiceover"}
			c.Voiceover.CTAPath = "cta.mp3"
			c.MaxDurationSeconds = Float(5)
		}, "must exceed"},
		{"negative trim start", func(c *Config) { c.Trim.StartSeconds = Float(-1) }, "trim.start_seconds"},
		{"trim window empty", func(c *Config) { c.Trim.StartSeconds = Float(60) }, "trim.end_seconds"},
		{"title without key", func(c *Config) { c.APIKey = "" }, "api_key"},
		{"bad privacy", func(c *Config) { c.Upload.PrivacyStatus = "secret" }, "upload.privacy_status"},
		{"bad category", func(c *Config) { c.Upload.CategoryID = "comedy" }, "upload.category_id"},
		{"bad tier", func(c *Config) { c.Title.ModelTier = "ultra" }, "title.model_tier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestValidate_StageVariants(t *testing.T) {
	c := validConfig()
	c.Stages = []string{"trim", "watermark", "voiceover", "title"}
	c.Watermark.ImagePath = "logo.png"
	c.Voiceover.CTAPath = "cta.mp3"
	assert.NoError(t, c.Validate())

	c.MaxDurationSeconds = Float(0)
	c.Trim.StartSeconds = Float(0)
	assert.NoError(t, c.Validate(), "zero ceiling and zero trim start are allowed")

	c.Stages = nil
	c.APIKey = ""
	assert.NoError(t, c.Validate(), "no title stage, no key needed")
}
