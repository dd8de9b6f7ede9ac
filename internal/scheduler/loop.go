// Package scheduler runs the discover, resolve, process cycle on a fixed
// daily timetable or continuously.
//
// The loop's only terminal condition is a fatal ledger error or
// cancellation. Discovery failures abandon the cycle and retry after an
// exponential backoff, or at the next scheduled wake if that comes first.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/trend-relay/internal/discovery"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/pipeline"
	"github.com/jonathan/trend-relay/internal/types"
)

// State is the loop's position in a cycle.
type State string

// State constants
const (
	StateIdle               State = "idle"
	StateFetchingCandidates State = "fetching_candidates"
	StateResolving          State = "resolving"
	StateProcessingBatch    State = "processing_batch"
)

// BatchProcessor runs resolved candidates; *pipeline.Runner implements it.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, candidates []types.VideoCandidate, rec pipeline.ResultRecorder) ([]types.PipelineResult, error)
}

// CycleRecorder persists cycle history; *db.DB implements it.
type CycleRecorder interface {
	StartCycle(ctx context.Context, id uuid.UUID, region string) error
	FinishCycle(ctx context.Context, id uuid.UUID, candidates int, tally types.Tally, cycleErr error) error
	SaveResult(ctx context.Context, cycleID uuid.UUID, r types.PipelineResult) error
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	ID         uuid.UUID
	Region     string
	StartedAt  time.Time
	Finished   time.Time
	Candidates int
	Results    []types.PipelineResult
	Err        error
}

// Tally counts the cycle's outcomes, including resolver skips.
func (r CycleReport) Tally() types.Tally {
	return types.CountOutcomes(r.Results)
}

// Loop drives cycles.
type Loop struct {
	Discoverer  discovery.Discoverer
	Ledger      ledger.Ledger
	Processor   BatchProcessor
	Schedule    Schedule
	Clock       Clock
	Regions     RegionPicker
	MaxResults  int
	Constraints pipeline.Constraints
	Backoff     *Backoff
	// RunOnStart runs a cycle immediately instead of waiting for the first wake.
	RunOnStart bool
	// Recorder is optional.
	Recorder CycleRecorder
	// OnCycle is called after every cycle, including failed ones.
	OnCycle func(CycleReport)
	// OnCandidates sees each discovered batch before resolution.
	OnCandidates func(region string, candidates []types.VideoCandidate)
	// OnState is called on every state transition.
	OnState func(State)

	mu    sync.Mutex
	state State
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == "" {
		return StateIdle
	}
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	if l.OnState != nil {
		l.OnState(s)
	}
}

// Run loops until ctx is cancelled (returning nil) or a cycle fails with a
// non-recoverable error (returned).
func (l *Loop) Run(ctx context.Context) error {
	clock := l.clock()
	backoff := l.Backoff
	if backoff == nil {
		backoff = &Backoff{Initial: 30 * time.Second, Max: 30 * time.Minute}
	}

	log.Printf("[SCHEDULER] Starting, schedule %s", l.Schedule)
	var retryIn time.Duration
	first := l.RunOnStart
	for {
		if !first {
			now := clock.Now()
			wait := l.Schedule.Next(now).Sub(now)
			if retryIn > 0 && retryIn < wait {
				wait = retryIn
				log.Printf("[SCHEDULER] Retrying discovery in %s", wait)
			} else {
				log.Printf("[SCHEDULER] Next cycle at %s", now.Add(wait).Format(time.RFC3339))
			}
			if err := clock.Sleep(ctx, wait); err != nil {
				log.Printf("[SCHEDULER] Stopping: %v", err)
				return nil
			}
		}
		first = false

		_, err := l.RunCycle(ctx)
		var discoveryErr *discovery.DiscoveryError
		switch {
		case err == nil:
			retryIn = 0
			backoff.Reset()
		case ctx.Err() != nil && (errors.As(err, &discoveryErr) || errors.Is(err, context.Canceled)):
			log.Printf("[SCHEDULER] Stopping after interrupted cycle: %v", err)
			return nil
		case errors.As(err, &discoveryErr):
			retryIn = backoff.Next()
			log.Printf("[SCHEDULER] Discovery failed, backing off %s: %v", retryIn, err)
		default:
			return err
		}
	}
}

// RunCycle performs one Idle -> FetchingCandidates -> Resolving ->
// ProcessingBatch -> Idle pass. The error is a *discovery.DiscoveryError,
// a ledger error, or ctx's error.
func (l *Loop) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{ID: uuid.New(), StartedAt: l.clock().Now()}
	defer l.setState(StateIdle)

	report.Region = l.regions().Pick()
	fmt.Printf("Cycle %s: region %s\n", report.ID, report.Region)
	l.recordStart(ctx, report)

	report.Err = l.cycle(ctx, &report)
	report.Finished = l.clock().Now()
	l.recordFinish(ctx, report)

	tally := report.Tally()
	log.Printf("[SCHEDULER] Cycle %s done: %d candidates, %d uploaded, %d skipped, %d failed",
		report.ID, report.Candidates, tally.Succeeded, tally.Skipped, tally.Failed)
	if l.OnCycle != nil {
		l.OnCycle(report)
	}
	return report, report.Err
}

func (l *Loop) cycle(ctx context.Context, report *CycleReport) error {
	// Pick up ids committed by overlapping runs before deciding anything.
	if r, ok := l.Ledger.(ledger.Refresher); ok {
		if err := r.Refresh(ctx); err != nil {
			return err
		}
	}

	l.setState(StateFetchingCandidates)
	candidates, err := l.Discoverer.Discover(ctx, report.Region, l.MaxResults)
	if err != nil {
		var discoveryErr *discovery.DiscoveryError
		if !errors.As(err, &discoveryErr) {
			err = &discovery.DiscoveryError{Region: report.Region, Message: "discover", Cause: err}
		}
		return err
	}
	report.Candidates = len(candidates)
	if l.OnCandidates != nil {
		l.OnCandidates(report.Region, candidates)
	}

	l.setState(StateResolving)
	kept, skipped := pipeline.Partition(candidates, l.Ledger, l.Constraints)
	rec := l.resultRecorder(report.ID)
	for _, s := range skipped {
		pipeline.Report(s)
		if rec != nil {
			if err := rec.RecordResult(ctx, s); err != nil {
				log.Printf("[SCHEDULER] Warning: failed to record skip for %s: %v", s.Candidate.ID, err)
			}
		}
	}
	report.Results = append(report.Results, skipped...)
	log.Printf("[SCHEDULER] %d of %d candidates to process", len(kept), len(candidates))

	l.setState(StateProcessingBatch)
	results, err := l.Processor.ProcessBatch(ctx, kept, rec)
	report.Results = append(report.Results, results...)
	return err
}

func (l *Loop) recordStart(ctx context.Context, r CycleReport) {
	if l.Recorder == nil {
		return
	}
	if err := l.Recorder.StartCycle(ctx, r.ID, r.Region); err != nil {
		log.Printf("[SCHEDULER] Warning: failed to record cycle start: %v", err)
	}
}

func (l *Loop) recordFinish(ctx context.Context, r CycleReport) {
	if l.Recorder == nil {
		return
	}
	if err := l.Recorder.FinishCycle(context.WithoutCancel(ctx), r.ID, r.Candidates, r.Tally(), r.Err); err != nil {
		log.Printf("[SCHEDULER] Warning: failed to record cycle finish: %v", err)
	}
}

func (l *Loop) resultRecorder(cycleID uuid.UUID) pipeline.ResultRecorder {
	if l.Recorder == nil {
		return nil
	}
	return cycleResults{rec: l.Recorder, cycleID: cycleID}
}

func (l *Loop) clock() Clock {
	if l.Clock == nil {
		return SystemClock{}
	}
	return l.Clock
}

func (l *Loop) regions() RegionPicker {
	if l.Regions == nil {
		return FixedRegion(DefaultRegions[0])
	}
	return l.Regions
}

// cycleResults binds result rows to a cycle id.
type cycleResults struct {
	rec     CycleRecorder
	cycleID uuid.UUID
}

func (c cycleResults) RecordResult(ctx context.Context, r types.PipelineResult) error {
	return c.rec.SaveResult(ctx, c.cycleID, r)
}
