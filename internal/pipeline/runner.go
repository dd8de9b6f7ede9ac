// Package pipeline turns trending candidates into uploads.
//
// Resolve decides which candidates are worth processing. A Runner then takes
// each one through download, the configured transform stages, publish, and
// ledger commit, strictly one candidate at a time. A candidate's failure is
// reported in its result and never stops the batch; only a ledger failure
// does, since continuing without a reliable dedup record risks re-uploading.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/trend-relay/internal/download"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/publish"
	"github.com/jonathan/trend-relay/internal/titling"
	"github.com/jonathan/trend-relay/internal/transform"
	"github.com/jonathan/trend-relay/internal/types"
)

// Step names reported through ProgressEvent.
const (
	StepDownload  = "download"
	StepTransform = "transform"
	StepPublish   = "publish"
	StepCommit    = "commit"
	StepCleanup   = "cleanup"
)

// ProgressEvent represents a progress update while processing a candidate
type ProgressEvent struct {
	Step        string `json:"step"`
	CandidateID string `json:"candidate_id"`
	Message     string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Downloader resolves a URL to a local file inside dir.
type Downloader interface {
	Download(ctx context.Context, url, dir string) (download.Result, error)
}

// ResultRecorder receives every result as it is produced.
type ResultRecorder interface {
	RecordResult(ctx context.Context, r types.PipelineResult) error
}

// Runner processes candidates end to end.
type Runner struct {
	Ledger     ledger.Ledger
	Downloader Downloader
	Stages     []transform.Stage
	Publisher  publish.Publisher
	// WorkDir holds one private subdirectory per in-flight candidate.
	WorkDir string
	// DryRun stops each candidate before publish; nothing is committed.
	DryRun bool
	// DefaultDescription and ExtraTags seed metadata before any title stage.
	DefaultDescription string
	ExtraTags          []string
	OnProgress         ProgressCallback
	// OnMetadata sees the final upload metadata once every stage has run.
	OnMetadata func(types.VideoCandidate, types.Metadata)
	// OnResult is called by ProcessBatch after each candidate is reported.
	OnResult func(types.PipelineResult)
}

// Process runs one candidate through the pipeline and always returns a
// result. Steps run on a context detached from ctx's cancellation so a
// shutdown lets the in-flight upload and commit finish.
func (r *Runner) Process(ctx context.Context, c types.VideoCandidate) types.PipelineResult {
	start := time.Now()
	res := r.process(context.WithoutCancel(ctx), c)
	res.Duration = time.Since(start)
	return res
}

func (r *Runner) process(ctx context.Context, c types.VideoCandidate) types.PipelineResult {
	// The id names the work directory.
	if err := c.Validate(); err != nil {
		return types.Skipped(c, types.SkipInvalid)
	}
	// An overlapping run may have published this id since it was resolved.
	if r.Ledger.Contains(c.ID) {
		return types.Skipped(c, types.SkipAlreadyProcessed)
	}

	dir := filepath.Join(r.WorkDir, c.ID)
	defer r.cleanup(c, dir)

	r.emit(StepDownload, c, "downloading %s", c.WatchURL())
	dl, err := r.Downloader.Download(ctx, c.WatchURL(), dir)
	if errors.Is(err, download.ErrNoArtifact) {
		return types.Skipped(c, types.SkipNoArtifact)
	}
	if err != nil {
		return types.Failed(c, classifyStep(err, types.FailureDownload), err)
	}
	if dl.Reused {
		r.emit(StepDownload, c, "reusing %s", dl.Path)
	}

	w := transform.Work{
		Candidate: c,
		Dir:       dir,
		Path:      dl.Path,
		Metadata:  titling.Fallback(c, r.DefaultDescription, r.ExtraTags),
	}
	for _, stage := range r.Stages {
		r.emit(StepTransform, c, "applying %s", stage.Name())
		w, err = stage.Apply(ctx, w)
		if err != nil {
			return types.Failed(c, classifyStep(err, types.FailureTransform), err)
		}
	}
	if r.OnMetadata != nil {
		r.OnMetadata(c, w.Metadata)
	}

	if r.DryRun {
		r.emit(StepPublish, c, "dry run: would upload %s as %q", w.Path, w.Metadata.Title)
		return types.Skipped(c, types.SkipDryRun)
	}

	r.emit(StepPublish, c, "uploading %q", w.Metadata.Title)
	remoteID, err := r.Publisher.Publish(ctx, w.Path, w.Metadata)
	if err != nil {
		return types.Failed(c, classifyStep(err, types.FailurePublish), err)
	}
	// Logged before commit so a crash in between leaves the remote id on record.
	log.Printf("[PIPELINE] Published %s as %s", c.ID, remoteID)

	r.emit(StepCommit, c, "recording %s as processed", c.ID)
	if err := r.Ledger.Commit(ctx, c.ID); err != nil {
		res := types.Failed(c, types.FailureLedger, err)
		res.RemoteID = remoteID
		return res
	}
	return types.Succeeded(c, remoteID)
}

// ProcessBatch processes candidates in order, one at a time. It stops early
// only when ctx is cancelled (no new candidate starts) or a ledger commit
// fails, and returns the results produced so far with that error.
func (r *Runner) ProcessBatch(ctx context.Context, candidates []types.VideoCandidate, rec ResultRecorder) ([]types.PipelineResult, error) {
	results := make([]types.PipelineResult, 0, len(candidates))
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			log.Printf("[PIPELINE] Stopping before %s: %v", c.ID, err)
			return results, err
		}

		fmt.Printf("Candidate %d/%d: %s\n", i+1, len(candidates), c)
		res := r.Process(ctx, c)
		Report(res)
		if r.OnResult != nil {
			r.OnResult(res)
		}
		record(ctx, rec, res)
		results = append(results, res)

		if res.Kind == types.FailureLedger {
			return results, fmt.Errorf("ledger commit failed after publishing %s as %s: %w", c.ID, res.RemoteID, res.Err)
		}
	}
	return results, nil
}

// Report logs a result with the candidate's id and title.
func Report(res types.PipelineResult) {
	switch res.Outcome {
	case types.OutcomeFailed:
		log.Printf("[PIPELINE] %s", res.Summary())
	default:
		log.Printf("[PIPELINE] %s (%s)", res.Summary(), res.Duration.Round(time.Millisecond))
	}
}

func record(ctx context.Context, rec ResultRecorder, res types.PipelineResult) {
	if rec == nil {
		return
	}
	if err := rec.RecordResult(context.WithoutCancel(ctx), res); err != nil {
		log.Printf("[PIPELINE] Warning: failed to record result for %s: %v", res.Candidate.ID, err)
	}
}

// cleanup removes the candidate's work directory, which holds the download
// and every stage output.
func (r *Runner) cleanup(c types.VideoCandidate, dir string) {
	r.emit(StepCleanup, c, "removing %s", dir)
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("[PIPELINE] Warning: cleanup of %s failed: %v", dir, err)
	}
}

func (r *Runner) emit(step string, c types.VideoCandidate, format string, args ...any) {
	if r.OnProgress == nil {
		return
	}
	r.OnProgress(ProgressEvent{
		Step:        step,
		CandidateID: c.ID,
		Message:     fmt.Sprintf(format, args...),
	})
}
