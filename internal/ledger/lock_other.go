//go:build !unix

package ledger

import "time"

// fileLock is a no-op where flock(2) is unavailable; the in-process mutex
// still serializes commits.
type fileLock struct{}

func newFileLock(string) *fileLock { return &fileLock{} }

func (l *fileLock) lock(time.Duration) error { return nil }

func (l *fileLock) unlock() {}
