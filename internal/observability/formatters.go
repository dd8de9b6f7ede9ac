// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/trend-relay/internal/db"
	"github.com/jonathan/trend-relay/internal/pipeline"
	"github.com/jonathan/trend-relay/internal/scheduler"
	"github.com/jonathan/trend-relay/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintCandidates outputs the trending candidates fetched for a region.
func (p *Printer) PrintCandidates(region string, candidates []types.VideoCandidate) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Region:      %s\n", region))
	sb.WriteString(fmt.Sprintf("Candidates:  %d\n", len(candidates)))

	if len(candidates) > 0 {
		sb.WriteString("\n")
	}
	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("• %s  %s\n", c.ID, formatSeconds(c.DurationSeconds)))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(c.Title, 50)))
	}
	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(candidates)-maxItemsToShow))
	}

	p.printBox("TRENDING CANDIDATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMetadata outputs the upload metadata generated for a candidate.
func (p *Printer) PrintMetadata(c types.VideoCandidate, md types.Metadata) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source:  %s\n", c.ID))
	sb.WriteString(fmt.Sprintf("Title:   %s\n", md.Title))
	sb.WriteString("\n")
	for _, line := range strings.Split(strings.TrimSpace(md.Description), "\n") {
		sb.WriteString(line + "\n")
	}
	if len(md.Tags) > 0 {
		tags := strings.Join(md.Tags, ", ")
		sb.WriteString(fmt.Sprintf("\nTags: %s\n", truncate(tags, 48)))
	}

	p.printBox("UPLOAD METADATA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgress writes a single progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "  [%-9s] %s: %s\n", event.Step, event.CandidateID, event.Message)
}

// PrintResult outputs the outcome of a single candidate.
func (p *Printer) PrintResult(res types.PipelineResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Video:    %s\n", res.Candidate.ID))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", res.Candidate.Title))
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", res.Outcome))
	switch res.Outcome {
	case types.OutcomeSuccess:
		sb.WriteString(fmt.Sprintf("Upload:   %s\n", res.RemoteID))
	case types.OutcomeSkipped:
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", res.Reason))
	case types.OutcomeFailed:
		sb.WriteString(fmt.Sprintf("Kind:     %s\n", res.Kind))
		sb.WriteString(fmt.Sprintf("Error:    %s\n", res.Reason))
	}
	if res.Duration > 0 {
		sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", res.Duration.Round(time.Millisecond)))
	}

	p.printBox("CANDIDATE RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCycleSummary outputs the outcome of one scheduler cycle.
func (p *Printer) PrintCycleSummary(report scheduler.CycleReport) {
	var sb strings.Builder
	tally := report.Tally()

	sb.WriteString(fmt.Sprintf("Cycle:       %s\n", report.ID.String()[:8]))
	sb.WriteString(fmt.Sprintf("Region:      %s\n", report.Region))
	if !report.Finished.IsZero() {
		sb.WriteString(fmt.Sprintf("Elapsed:     %s\n", report.Finished.Sub(report.StartedAt).Round(time.Second)))
	}
	sb.WriteString(fmt.Sprintf("Candidates:  %d\n", report.Candidates))
	sb.WriteString(fmt.Sprintf("Uploaded: %d  Skipped: %d  Failed: %d\n", tally.Succeeded, tally.Skipped, tally.Failed))

	var lines []string
	for _, r := range report.Results {
		switch r.Outcome {
		case types.OutcomeSuccess:
			lines = append(lines, fmt.Sprintf("✓ %s → %s", r.Candidate.ID, r.RemoteID))
		case types.OutcomeFailed:
			lines = append(lines, fmt.Sprintf("✗ %s [%s]", r.Candidate.ID, r.Kind))
		}
	}
	if len(lines) > 0 {
		sb.WriteString("\n")
		count := min(len(lines), maxItemsToShow)
		for _, l := range lines[:count] {
			sb.WriteString(l + "\n")
		}
		if len(lines) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(lines)-maxItemsToShow))
		}
	}

	if report.Err != nil {
		sb.WriteString(fmt.Sprintf("\n⚠ %s\n", report.Err))
	}

	p.printBox("CYCLE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLedger outputs the most recent ledger entries.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLedger(path string, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "LEDGER IS EMPTY")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source:  %s\n", path))
	sb.WriteString(fmt.Sprintf("Entries: %d\n\n", len(ids)))

	start := max(len(ids)-maxItemsToShow, 0)
	if start > 0 {
		sb.WriteString(fmt.Sprintf("... %d earlier\n", start))
	}
	for _, id := range ids[start:] {
		sb.WriteString(fmt.Sprintf("• %s\n", id))
	}

	p.printBox("PROCESSED VIDEOS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCycles outputs recorded cycle history, newest first.
func (p *Printer) PrintCycles(cycles []db.Cycle) {
	if len(cycles) == 0 {
		p.printBox("CYCLE HISTORY", "No cycles recorded")
		return
	}

	var sb strings.Builder
	for i, c := range cycles {
		sb.WriteString(fmt.Sprintf("%s  %s  %-9s\n", c.StartedAt.Local().Format("2006-01-02 15:04"), c.Region, c.Status))
		sb.WriteString(fmt.Sprintf("  %d candidates: %d up, %d skip, %d fail\n", c.Candidates, c.Succeeded, c.Skipped, c.Failed))
		if c.Error != nil {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", *c.Error))
		}
		if i < len(cycles)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CYCLE HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

func formatSeconds(secs float64) string {
	d := time.Duration(secs * float64(time.Second)).Round(time.Second)
	return d.String()
}
