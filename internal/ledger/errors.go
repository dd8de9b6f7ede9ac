package ledger

import "fmt"

// LedgerCorruptError means the persisted ledger could not be read back. It is
// fatal: running with an unreliable dedup record risks mass re-publishing.
type LedgerCorruptError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LedgerCorruptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ledger corrupt: %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("ledger corrupt: %s: %s", e.Path, e.Message)
}

func (e *LedgerCorruptError) Unwrap() error {
	return e.Cause
}

// CommitError wraps a failure to persist a commit.
type CommitError struct {
	ID    string
	Cause error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("ledger commit %s: %v", e.ID, e.Cause)
}

func (e *CommitError) Unwrap() error {
	return e.Cause
}
