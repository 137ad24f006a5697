package lock

import (
	"context"
	"time"
)

const (
	// MinWait is the wait after the first failed locking attempt.
	MinWait = time.Millisecond
	// MaxWait is the ceiling of the wait between locking attempts.
	MaxWait = 128 * time.Millisecond
)

// Backoff defines the wait between locking attempts; it doubles after every failure up to Max.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBackoff returns 1ms..128ms backoff.
func DefaultBackoff() Backoff {
	return Backoff{Min: MinWait, Max: MaxWait}
}

// Next returns the wait following current.
func (b Backoff) Next(current time.Duration) time.Duration {
	if current >= b.Max {
		return b.Max
	}
	next := current * 2
	if next > b.Max {
		next = b.Max
	}
	return next
}

// Sleeper pauses the caller for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
