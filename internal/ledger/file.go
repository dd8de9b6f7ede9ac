package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/trend-relay/internal/storage"
)

const lockTimeout = 5 * time.Second

// FileLedger persists the processed set as a JSON array of ids, in commit
// order. The format is compatible with the processed_videos.json files the
// earlier scripts wrote.
type FileLedger struct {
	path string
	lock *fileLock
	mu   sync.RWMutex
	ids  *set
}

// OpenFile loads the ledger at path. A missing file is an empty ledger; an
// unreadable or unparsable file is a *LedgerCorruptError. The parent
// directory is created and the lock taken once, so a location that cannot
// hold the ledger fails here rather than at the first commit.
func OpenFile(path string) (*FileLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	l := &FileLedger{
		path: path,
		lock: newFileLock(path),
	}
	if err := l.lock.lock(lockTimeout); err != nil {
		return nil, fmt.Errorf("failed to lock ledger %s: %w", path, err)
	}
	l.lock.unlock()

	ids, err := l.read()
	if err != nil {
		return nil, err
	}
	l.ids = ids

	log.Printf("[LEDGER] Loaded %d processed ids from %s", len(ids.order), path)
	return l, nil
}

// Path returns the backing file.
func (l *FileLedger) Path() string {
	return l.path
}

// Contains reports whether id was previously committed.
func (l *FileLedger) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids.has(id)
}

// Commit appends id and writes the full ledger atomically before returning.
// The on-disk file is re-read under the cross-process lock first, so ids
// committed by an overlapping run are preserved.
func (l *FileLedger) Commit(_ context.Context, id string) error {
	if id == "" {
		return &CommitError{ID: id, Cause: errors.New("empty id")}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.lock.lock(lockTimeout); err != nil {
		return &CommitError{ID: id, Cause: err}
	}
	defer l.lock.unlock()

	onDisk, err := l.read()
	if err != nil {
		return err
	}

	merged := newSet()
	for _, existing := range onDisk.order {
		merged.add(existing)
	}
	for _, existing := range l.ids.order {
		merged.add(existing)
	}
	added := merged.add(id)

	if !added && len(merged.order) == len(onDisk.order) {
		// Already durable.
		l.ids = merged
		return nil
	}

	if err := l.write(merged.order); err != nil {
		return &CommitError{ID: id, Cause: err}
	}
	l.ids = merged
	return nil
}

// Refresh merges ids written by other processes since the last read.
func (l *FileLedger) Refresh(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	onDisk, err := l.read()
	if err != nil {
		return err
	}
	for _, id := range onDisk.order {
		l.ids.add(id)
	}
	return nil
}

// IDs returns the committed ids in commit order.
func (l *FileLedger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids.snapshot()
}

// Len returns the number of committed ids.
func (l *FileLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids.order)
}

// read parses the backing file, de-duplicating entries.
func (l *FileLedger) read() (*set, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newSet(), nil
		}
		return nil, &LedgerCorruptError{Path: l.path, Message: "unreadable", Cause: err}
	}

	ids := newSet()
	if len(bytes.TrimSpace(data)) == 0 {
		return ids, nil
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &LedgerCorruptError{Path: l.path, Message: "not a JSON array of ids", Cause: err}
	}
	for i, id := range entries {
		if id == "" {
			return nil, &LedgerCorruptError{Path: l.path, Message: fmt.Sprintf("entry %d is empty", i)}
		}
		ids.add(id)
	}
	return ids, nil
}

func (l *FileLedger) write(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	data = append(data, '\n')
	return storage.WriteFileAtomic(l.path, data, 0644)
}
