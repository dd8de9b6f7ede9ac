package observability

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/trend-relay/internal/db"
	"github.com/jonathan/trend-relay/internal/pipeline"
	"github.com/jonathan/trend-relay/internal/scheduler"
	"github.com/jonathan/trend-relay/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintCandidates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidates("JP", []types.VideoCandidate{
		{ID: "abc123", Title: "Cat plays piano", DurationSeconds: 95},
		{ID: "def456", Title: "Street food tour", DurationSeconds: 240},
	})
	output := buf.String()

	assert.Contains(t, output, "TRENDING CANDIDATES")
	assert.Contains(t, output, "JP")
	assert.Contains(t, output, "abc123")
	assert.Contains(t, output, "1m35s")
	assert.Contains(t, output, "Street food tour")
}

func TestPrintCandidates_ManyItems(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var cands []types.VideoCandidate
	for i := 0; i < 8; i++ {
		cands = append(cands, types.VideoCandidate{ID: fmt.Sprintf("vid%d", i), Title: "t"})
	}
	p.PrintCandidates("US", cands)
	output := buf.String()

	assert.Contains(t, output, "vid4")
	assert.NotContains(t, output, "vid5")
	assert.Contains(t, output, "... and 3 more")
}

func TestPrintMetadata(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintMetadata(types.VideoCandidate{ID: "abc123"}, types.Metadata{
		Title:       "You won't believe this cat",
		Description: "A cat plays piano.\nSubscribe for more!",
		Tags:        []string{"trending", "cat"},
	})
	output := buf.String()

	assert.Contains(t, output, "UPLOAD METADATA")
	assert.Contains(t, output, "You won't believe this cat")
	assert.Contains(t, output, "Subscribe for more!")
	assert.Contains(t, output, "trending, cat")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProgress(pipeline.ProgressEvent{Step: pipeline.StepPublish, CandidateID: "abc123", Message: "uploading"})

	assert.Contains(t, buf.String(), "[publish  ] abc123: uploading")
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name string
		res  types.PipelineResult
		want []string
	}{
		{
			name: "success",
			res:  types.Succeeded(types.VideoCandidate{ID: "abc123", Title: "Cat"}, "yt-9"),
			want: []string{"CANDIDATE RESULT", "abc123", "Cat", "success", "yt-9"},
		},
		{
			name: "skipped",
			res:  types.Skipped(types.VideoCandidate{ID: "abc123"}, types.SkipDryRun),
			want: []string{"skipped", "dry run"},
		},
		{
			name: "failed",
			res:  types.Failed(types.VideoCandidate{ID: "abc123"}, types.FailurePublish, errors.New("quota")),
			want: []string{"failed", "publish", "quota"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintResult(tt.res)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrintCycleSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	report := scheduler.CycleReport{
		ID:         uuid.New(),
		Region:     "GB",
		StartedAt:  start,
		Finished:   start.Add(95 * time.Second),
		Candidates: 3,
		Results: []types.PipelineResult{
			types.Succeeded(types.VideoCandidate{ID: "a1"}, "yt-1"),
			types.Skipped(types.VideoCandidate{ID: "b2"}, types.SkipTooLong),
			types.Failed(types.VideoCandidate{ID: "c3"}, types.FailureDownload, errors.New("boom")),
		},
	}

	p.PrintCycleSummary(report)
	output := buf.String()

	assert.Contains(t, output, "CYCLE SUMMARY")
	assert.Contains(t, output, "GB")
	assert.Contains(t, output, "1m35s")
	assert.Contains(t, output, "Uploaded: 1  Skipped: 1  Failed: 1")
	assert.Contains(t, output, "a1 → yt-1")
	assert.Contains(t, output, "c3 [download]")
	assert.NotContains(t, output, "b2")
}

func TestPrintCycleSummary_Error(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCycleSummary(scheduler.CycleReport{ID: uuid.New(), Region: "US", Err: errors.New("quota exhausted")})

	assert.Contains(t, buf.String(), "quota exhausted")
	assert.NotContains(t, buf.String(), "Elapsed")
}

func TestPrintLedger(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLedger("processed_videos.json", []string{"a", "b", "c", "d", "e", "f", "g"})
	output := buf.String()

	assert.Contains(t, output, "PROCESSED VIDEOS")
	assert.Contains(t, output, "Entries: 7")
	assert.Contains(t, output, "... 2 earlier")
	assert.Contains(t, output, "• g")
	assert.NotContains(t, output, "• b")
}

func TestPrintLedger_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLedger("processed_videos.json", nil)

	assert.Contains(t, buf.String(), "LEDGER IS EMPTY")
}

func TestPrintCycles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	msg := "discovery failed"
	p.PrintCycles([]db.Cycle{
		{Region: "KR", Status: db.CycleStatusCompleted, Candidates: 5, Succeeded: 2, Skipped: 3, StartedAt: time.Now()},
		{Region: "FR", Status: db.CycleStatusFailed, Error: &msg, StartedAt: time.Now()},
	})
	output := buf.String()

	assert.Contains(t, output, "CYCLE HISTORY")
	assert.Contains(t, output, "5 candidates: 2 up, 3 skip, 0 fail")
	assert.Contains(t, output, "discovery failed")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TEST", strings.Repeat("x", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}
