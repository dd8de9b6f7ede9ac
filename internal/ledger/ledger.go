// Package ledger records which source videos have already been published so
// repeated or overlapping runs never process the same video twice.
//
// The processed set only grows: once an id is committed it stays a member for
// the lifetime of the ledger. Every Commit reaches stable storage before it
// returns.
package ledger

import "context"

// Ledger is the durable set of processed video ids.
type Ledger interface {
	// Contains reports whether id was previously committed.
	Contains(id string) bool
	// Commit durably records id. Committing an id twice is a no-op.
	Commit(ctx context.Context, id string) error
	// IDs returns the committed ids in commit order.
	IDs() []string
	// Len returns the number of committed ids.
	Len() int
}

// Refresher is implemented by ledgers whose backing storage can be written by
// another process; Refresh merges those writes into memory.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// set is the in-memory ordered set shared by the backends.
type set struct {
	order   []string
	members map[string]struct{}
}

func newSet() *set {
	return &set{members: make(map[string]struct{})}
}

// add appends id if absent and reports whether it was added.
func (s *set) add(id string) bool {
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *set) has(id string) bool {
	_, ok := s.members[id]
	return ok
}

func (s *set) snapshot() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
