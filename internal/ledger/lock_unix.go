//go:build unix

package ledger

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// errLockTimeout is returned when another process holds the ledger lock for
// longer than the timeout.
var errLockTimeout = errors.New("timed out waiting for ledger lock")

// fileLock is an advisory flock(2) lock on path + ".lock", used to serialize
// read-merge-write cycles between overlapping processes.
type fileLock struct {
	path string
	file *os.File
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path + ".lock"}
}

func (l *fileLock) lock(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			l.file = f
			return nil
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return errLockTimeout
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func (l *fileLock) unlock() {
	if l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
