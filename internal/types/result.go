package types

import (
	"fmt"
	"time"
)

// Outcome is the terminal state of one candidate's processing.
type Outcome string

// Outcome constants
const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// FailureKind classifies the root cause of a failed candidate.
type FailureKind string

// FailureKind constants
const (
	FailureNone      FailureKind = ""
	FailureDownload  FailureKind = "download"
	FailureTransform FailureKind = "transform"
	FailurePublish   FailureKind = "publish"
	FailureAuth      FailureKind = "auth"
	FailureLedger    FailureKind = "ledger"
)

// Skip reasons reported by the resolver and runner.
const (
	SkipAlreadyProcessed = "already processed"
	SkipTooLong          = "exceeds duration ceiling"
	SkipDuplicateInBatch = "duplicate in batch"
	SkipInvalid          = "invalid candidate"
	SkipNoArtifact       = "download produced no file"
	SkipDryRun           = "dry run"
)

// PipelineResult is the transient per-candidate report of one run. It is
// used for logging and run history only; the ledger is the source of truth.
type PipelineResult struct {
	Candidate VideoCandidate `json:"candidate"`
	Outcome   Outcome        `json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
	Kind      FailureKind    `json:"kind,omitempty"`
	Err       error          `json:"-"`
	RemoteID  string         `json:"remote_id,omitempty"`
	Duration  time.Duration  `json:"duration,omitempty"`
}

// Succeeded builds a success result carrying the remote upload id.
func Succeeded(c VideoCandidate, remoteID string) PipelineResult {
	return PipelineResult{Candidate: c, Outcome: OutcomeSuccess, RemoteID: remoteID}
}

// Skipped builds a skip result with a human-readable reason.
func Skipped(c VideoCandidate, reason string) PipelineResult {
	return PipelineResult{Candidate: c, Outcome: OutcomeSkipped, Reason: reason}
}

// Failed builds a failure result of the given kind.
func Failed(c VideoCandidate, kind FailureKind, err error) PipelineResult {
	r := PipelineResult{Candidate: c, Outcome: OutcomeFailed, Kind: kind, Err: err}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// Summary renders a single report line including the candidate's id and title.
func (r PipelineResult) Summary() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("uploaded %s as %s", r.Candidate, r.RemoteID)
	case OutcomeSkipped:
		return fmt.Sprintf("skipped %s: %s", r.Candidate, r.Reason)
	default:
		return fmt.Sprintf("failed %s [%s]: %s", r.Candidate, r.Kind, r.Reason)
	}
}

// Tally counts results by outcome.
type Tally struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// CountOutcomes tallies a batch of results.
func CountOutcomes(results []PipelineResult) Tally {
	var t Tally
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSuccess:
			t.Succeeded++
		case OutcomeSkipped:
			t.Skipped++
		case OutcomeFailed:
			t.Failed++
		}
	}
	return t
}
