package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonathan/trend-relay/internal/download"
	"github.com/jonathan/trend-relay/internal/transform"
	"github.com/jonathan/trend-relay/internal/types"
)

// memLedger is an in-memory ledger with an injectable commit failure.
type memLedger struct {
	mu        sync.Mutex
	ids       []string
	commitErr error
	// onCommit runs before a commit is recorded.
	onCommit func(id string)
}

func newMemLedger(ids ...string) *memLedger {
	return &memLedger{ids: ids}
}

func (l *memLedger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (l *memLedger) Commit(_ context.Context, id string) error {
	if l.onCommit != nil {
		l.onCommit(id)
	}
	if l.commitErr != nil {
		return l.commitErr
	}
	if l.Contains(id) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
	return nil
}

func (l *memLedger) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ids...)
}

func (l *memLedger) Len() int { return len(l.IDs()) }

// fakeDownloader writes a source file into the candidate's directory.
type fakeDownloader struct {
	calls []string
	err   error
	// noFile simulates a download that leaves nothing behind.
	noFile bool
}

func (d *fakeDownloader) Download(_ context.Context, url, dir string) (download.Result, error) {
	d.calls = append(d.calls, url)
	if d.err != nil {
		return download.Result{}, d.err
	}
	if d.noFile {
		return download.Result{}, download.ErrNoArtifact
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return download.Result{}, err
	}
	path := filepath.Join(dir, "source.mp4")
	if err := os.WriteFile(path, []byte("raw"), 0644); err != nil {
		return download.Result{}, err
	}
	return download.Result{Path: path}, nil
}

// fileStage writes a new artifact next to the current one.
type fileStage struct {
	name string
	err  error
	// failFor limits err to one candidate id.
	failFor string
	apply   func(ctx context.Context, w transform.Work)
	outputs []string
}

func (s *fileStage) Name() string { return s.name }

func (s *fileStage) Apply(ctx context.Context, w transform.Work) (transform.Work, error) {
	if s.apply != nil {
		s.apply(ctx, w)
	}
	if s.err != nil && (s.failFor == "" || s.failFor == w.Candidate.ID) {
		return w, s.err
	}
	out := filepath.Join(w.Dir, s.name+".mp4")
	if err := os.WriteFile(out, []byte(s.name), 0644); err != nil {
		return w, err
	}
	s.outputs = append(s.outputs, out)
	w.Path = out
	return w, nil
}

type published struct {
	path string
	md   types.Metadata
}

// fakePublisher records uploads and fails for ids in failFor.
type fakePublisher struct {
	uploads []published
	err     error
	failFor map[string]bool
	// existed records whether the artifact existed at publish time.
	existed []bool
}

func (p *fakePublisher) Publish(_ context.Context, path string, md types.Metadata) (string, error) {
	_, statErr := os.Stat(path)
	p.existed = append(p.existed, statErr == nil)
	for id := range p.failFor {
		if filepath.Base(filepath.Dir(path)) == id {
			return "", p.err
		}
	}
	if p.err != nil && p.failFor == nil {
		return "", p.err
	}
	p.uploads = append(p.uploads, published{path: path, md: md})
	return "remote-" + filepath.Base(filepath.Dir(path)), nil
}

type memRecorder struct {
	results []types.PipelineResult
	err     error
}

func (m *memRecorder) RecordResult(_ context.Context, r types.PipelineResult) error {
	m.results = append(m.results, r)
	return m.err
}

var errBoom = errors.New("boom")

func cand(id string, duration float64) types.VideoCandidate {
	return types.VideoCandidate{ID: id, Title: "Video " + id, DurationSeconds: duration}
}
