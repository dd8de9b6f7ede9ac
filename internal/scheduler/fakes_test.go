package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/trend-relay/internal/discovery"
	"github.com/jonathan/trend-relay/internal/ledger"
	"github.com/jonathan/trend-relay/internal/pipeline"
	"github.com/jonathan/trend-relay/internal/types"
)

// fakeClock advances instantly. After maxSleeps sleeps it cancels the loop.
type fakeClock struct {
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
	cancel    context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	if c.maxSleeps > 0 && len(c.sleeps) > c.maxSleeps && c.cancel != nil {
		c.cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

// scriptedDiscoverer returns one scripted reply per call, repeating the last.
type scriptedDiscoverer struct {
	replies []discoverReply
	regions []string
}

type discoverReply struct {
	candidates []types.VideoCandidate
	err        error
}

func (d *scriptedDiscoverer) Discover(_ context.Context, region string, _ int) ([]types.VideoCandidate, error) {
	d.regions = append(d.regions, region)
	i := len(d.regions) - 1
	if i >= len(d.replies) {
		i = len(d.replies) - 1
	}
	r := d.replies[i]
	return r.candidates, r.err
}

// recordingProcessor commits every candidate it is given.
type recordingProcessor struct {
	ledger  ledger.Ledger
	batches [][]string
	err     error
}

func (p *recordingProcessor) ProcessBatch(ctx context.Context, cands []types.VideoCandidate, rec pipeline.ResultRecorder) ([]types.PipelineResult, error) {
	ids := make([]string, 0, len(cands))
	var results []types.PipelineResult
	for _, c := range cands {
		ids = append(ids, c.ID)
		if p.err != nil {
			res := types.Failed(c, types.FailureLedger, p.err)
			results = append(results, res)
			p.batches = append(p.batches, ids)
			return results, p.err
		}
		if err := p.ledger.Commit(ctx, c.ID); err != nil {
			return results, err
		}
		res := types.Succeeded(c, "r-"+c.ID)
		if rec != nil {
			_ = rec.RecordResult(ctx, res)
		}
		results = append(results, res)
	}
	p.batches = append(p.batches, ids)
	return results, nil
}

type memLedger struct {
	mu         sync.Mutex
	ids        map[string]bool
	refreshErr error
	refreshes  int
	// pending ids appear on Refresh, as if written by another process.
	pending []string
}

func newMemLedger(ids ...string) *memLedger {
	l := &memLedger{ids: map[string]bool{}}
	for _, id := range ids {
		l.ids[id] = true
	}
	return l
}

func (l *memLedger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ids[id]
}

func (l *memLedger) Commit(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[id] = true
	return nil
}

func (l *memLedger) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	return out
}

func (l *memLedger) Len() int { return len(l.IDs()) }

func (l *memLedger) Refresh(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes++
	if l.refreshErr != nil {
		return l.refreshErr
	}
	for _, id := range l.pending {
		l.ids[id] = true
	}
	l.pending = nil
	return nil
}

type cycleRow struct {
	region     string
	candidates int
	tally      types.Tally
	err        error
	results    []string
}

type memRecorder struct {
	cycles map[uuid.UUID]*cycleRow
	order  []uuid.UUID
}

func newMemRecorder() *memRecorder {
	return &memRecorder{cycles: map[uuid.UUID]*cycleRow{}}
}

func (m *memRecorder) StartCycle(_ context.Context, id uuid.UUID, region string) error {
	m.cycles[id] = &cycleRow{region: region}
	m.order = append(m.order, id)
	return nil
}

func (m *memRecorder) FinishCycle(_ context.Context, id uuid.UUID, candidates int, tally types.Tally, cycleErr error) error {
	row := m.cycles[id]
	row.candidates, row.tally, row.err = candidates, tally, cycleErr
	return nil
}

func (m *memRecorder) SaveResult(_ context.Context, cycleID uuid.UUID, r types.PipelineResult) error {
	row, ok := m.cycles[cycleID]
	if !ok {
		return errors.New("unknown cycle")
	}
	row.results = append(row.results, r.Candidate.ID+":"+string(r.Outcome))
	return nil
}

var errUnreachable = &discovery.DiscoveryError{Region: "US", Message: "videos.list failed", Cause: errors.New("connection refused")}

func cand(id string, duration float64) types.VideoCandidate {
	return types.VideoCandidate{ID: id, Title: "Video " + id, DurationSeconds: duration}
}
