package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var knownStages = map[string]bool{
	"trim":      true,
	"watermark": true,
	"voiceover": true,
	"title":     true,
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field formats and the cross-field rules that depend on
// which backend, schedule mode, and stages are selected. Call it after
// MergeWithDefaults.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation (value %v)",
				strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.LedgerBackend == LedgerBackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config error: ledger_backend 'postgres' requires database_url (or DATABASE_URL)")
	}
	if c.RecordRuns && c.DatabaseURL == "" {
		return fmt.Errorf("config error: record_runs requires database_url (or DATABASE_URL)")
	}
	if c.RegionPolicy == "fixed" && c.Region == "" {
		return fmt.Errorf("config error: region_policy 'fixed' requires 'region'")
	}
	if c.RegionPolicy == "random" && len(c.Regions) == 0 {
		return fmt.Errorf("config error: region_policy 'random' requires 'regions'")
	}

	switch c.Schedule.Mode {
	case "fixed":
		if len(c.Schedule.Times) == 0 {
			return fmt.Errorf("config error: schedule mode 'fixed' requires schedule.times")
		}
	case "continuous":
		if c.Schedule.Interval.Duration <= 0 {
			return fmt.Errorf("config error: schedule mode 'continuous' requires a positive schedule.interval")
		}
	}
	if c.Backoff.Initial.Duration < 0 || c.Backoff.Max.Duration < 0 {
		return fmt.Errorf("config error: backoff durations must be non-negative")
	}
	if c.Backoff.Max.Duration > 0 && c.Backoff.Max.Duration < c.Backoff.Initial.Duration {
		return fmt.Errorf("config error: backoff.max must be at least backoff.initial")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	return c.validateStages()
}

func (c *Config) validateStages() error {
	seen := make(map[string]bool, len(c.Stages))
	for _, s := range c.Stages {
		if !knownStages[s] {
			return fmt.Errorf("config error: unknown stage %q (want trim, watermark, voiceover, title)", s)
		}
		if seen[s] {
			return fmt.Errorf("config error: stage %q listed twice", s)
		}
		seen[s] = true
	}

	if seen["trim"] && c.Trim.EndSeconds <= c.TrimStart() {
		return fmt.Errorf("config error: stage 'trim' requires trim.end_seconds > trim.start_seconds")
	}
	if seen["watermark"] && c.Watermark.Text == "" && c.Watermark.ImagePath == "" {
		return fmt.Errorf("config error: stage 'watermark' requires watermark.text or watermark.image_path")
	}
	if seen["voiceover"] {
		if c.Voiceover.CTAPath == "" {
			return fmt.Errorf("config error: stage 'voiceover' requires voiceover.cta_path")
		}
		if c.Voiceover.CTASeconds <= 0 {
			return fmt.Errorf("config error: stage 'voiceover' requires voiceover.cta_seconds > 0")
		}
		if ceiling := c.MaxDuration(); ceiling > 0 && ceiling <= c.Voiceover.CTASeconds {
			return fmt.Errorf("config error: max_duration_seconds must exceed voiceover.cta_seconds")
		}
	}
	if seen["title"] && c.APIKey == "" {
		return fmt.Errorf("config error: stage 'title' requires api_key (or GEMINI_API_KEY)")
	}
	return nil
}
