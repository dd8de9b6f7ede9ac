// Package types provides type definitions for structured data used throughout the trend-relay system.
package types

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// watchURLPrefix is the canonical watch page for a YouTube video id.
const watchURLPrefix = "https://www.youtube.com/watch?v="

// videoIDPattern restricts ids to characters that are safe as file names.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// VideoCandidate is a trending video discovered for possible processing.
// Candidates are produced by discovery and are immutable for the rest of a cycle.
type VideoCandidate struct {
	ID              string  `json:"id" validate:"required,max=64"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds" validate:"gte=0"`
}

// Validate checks the candidate's structural invariants.
func (c VideoCandidate) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !videoIDPattern.MatchString(c.ID) {
		return fmt.Errorf("invalid video id %q", c.ID)
	}
	return nil
}

// WatchURL returns the public watch URL for the candidate.
func (c VideoCandidate) WatchURL() string {
	return watchURLPrefix + c.ID
}

// String renders the candidate for log lines.
func (c VideoCandidate) String() string {
	return fmt.Sprintf("%s (%q)", c.ID, c.Title)
}

// Metadata is the text attached to an upload.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}
