// Package transform provides the editing stages a downloaded video passes
// through before upload. Each stage consumes one artifact (and the current
// upload metadata) and produces a new artifact or new metadata.
package transform

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/trend-relay/internal/types"
)

// Stage names recognized in configuration.
const (
	StageTrim      = "trim"
	StageWatermark = "watermark"
	StageVoiceover = "voiceover"
	StageTitle     = "title"
)

// Work is the state threaded through a stage chain for one candidate.
type Work struct {
	Candidate types.VideoCandidate
	// Dir is the candidate's private work directory; stages write outputs here.
	Dir string
	// Path is the current artifact.
	Path string
	// Metadata is the current upload metadata.
	Metadata types.Metadata
}

// Stage is one step of the transform chain.
type Stage interface {
	Name() string
	Apply(ctx context.Context, w Work) (Work, error)
}

// Chain resolves configured stage names, in order, against the available
// stages. Unknown names are an error so a typo never silently skips editing.
func Chain(names []string, available map[string]Stage) ([]Stage, error) {
	stages := make([]Stage, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		stage, ok := available[name]
		if !ok || stage == nil {
			return nil, fmt.Errorf("unknown or unconfigured transform stage %q", raw)
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Names returns the names of stages in order.
func Names(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

// outputPath reserves a fresh file in the work directory for a stage output.
func outputPath(dir, stage, ext string) (string, error) {
	f, err := os.CreateTemp(dir, stage+"-*"+ext)
	if err != nil {
		return "", err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
