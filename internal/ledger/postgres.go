package ledger

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Store is the persistence surface the Postgres ledger needs. *db.DB
// implements it.
type Store interface {
	ListProcessedVideoIDs(ctx context.Context) ([]string, error)
	InsertProcessedVideo(ctx context.Context, id string) error
}

// PostgresLedger keeps the processed set in the processed_videos table and
// mirrors it in memory for Contains.
type PostgresLedger struct {
	store Store
	mu    sync.RWMutex
	ids   *set
}

// OpenPostgres loads every committed id from store. Load failures and empty
// ids are reported as *LedgerCorruptError.
func OpenPostgres(ctx context.Context, store Store) (*PostgresLedger, error) {
	l := &PostgresLedger{store: store}
	ids, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	l.ids = ids
	log.Printf("[LEDGER] Loaded %d processed ids from postgres", len(ids.order))
	return l, nil
}

// Contains reports whether id was previously committed.
func (l *PostgresLedger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids.has(id)
}

// Commit inserts id; the insert is idempotent at the table level.
func (l *PostgresLedger) Commit(ctx context.Context, id string) error {
	if id == "" {
		return &CommitError{ID: id, Cause: fmt.Errorf("empty id")}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ids.has(id) {
		return nil
	}
	if err := l.store.InsertProcessedVideo(ctx, id); err != nil {
		return &CommitError{ID: id, Cause: err}
	}
	l.ids.add(id)
	return nil
}

// Refresh merges ids inserted by other processes.
func (l *PostgresLedger) Refresh(ctx context.Context) error {
	ids, err := l.read(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids.order {
		l.ids.add(id)
	}
	return nil
}

// IDs returns the committed ids in commit order.
func (l *PostgresLedger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids.snapshot()
}

// Len returns the number of committed ids.
func (l *PostgresLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids.order)
}

func (l *PostgresLedger) read(ctx context.Context) (*set, error) {
	rows, err := l.store.ListProcessedVideoIDs(ctx)
	if err != nil {
		return nil, &LedgerCorruptError{Path: "postgres:processed_videos", Message: "unreadable", Cause: err}
	}
	ids := newSet()
	for i, id := range rows {
		if id == "" {
			return nil, &LedgerCorruptError{Path: "postgres:processed_videos", Message: fmt.Sprintf("row %d has an empty id", i)}
		}
		ids.add(id)
	}
	return ids, nil
}
