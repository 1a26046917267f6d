// ABOUTME: Capped exponential backoff policy for automatic reconnection
// ABOUTME: Pure function of the attempt number, independent of any timer

package session

import (
	"errors"
	"time"
)

// Backoff configures automatic reconnection.
type Backoff struct {
	// Base is the delay before the first retry. Default: 1s
	Base time.Duration
	// Max caps every delay. Default: 10s
	Max time.Duration
	// MaxAttempts is the number of automatic retries before giving up.
	// Zero disables automatic reconnection. Default: 5
	MaxAttempts int
}

// DefaultBackoff returns the reference reconnection policy.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        time.Second,
		Max:         10 * time.Second,
		MaxAttempts: 5,
	}
}

// Validate checks that the policy is usable.
func (b Backoff) Validate() error {
	if b.Base <= 0 {
		return errors.New("backoff base must be positive")
	}
	if b.Max < b.Base {
		return errors.New("backoff max must be at least base")
	}
	if b.MaxAttempts < 0 {
		return errors.New("backoff max attempts must not be negative")
	}
	return nil
}

// Delay returns min(Base * 2^attempt, Max).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := b.Base
	for range attempt {
		if d >= b.Max {
			break
		}
		d *= 2
	}
	return min(d, b.Max)
}

// Exhausted reports whether no retry may follow attempt.
func (b Backoff) Exhausted(attempt int) bool {
	return attempt >= b.MaxAttempts
}
