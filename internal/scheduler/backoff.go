package scheduler

import "time"

// Backoff doubles the retry delay after each consecutive failure, up to Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	current time.Duration
}

// Next returns the delay for the next retry and advances the sequence.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Initial
	} else {
		b.current *= 2
	}
	if b.Max > 0 && b.current > b.Max {
		b.current = b.Max
	}
	return b.current
}

// Reset starts the sequence over after a success.
func (b *Backoff) Reset() {
	b.current = 0
}
