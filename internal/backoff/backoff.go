// Package backoff implements the retry discipline shared by the outbound
// clients: a bounded number of attempts with exponentially growing delays.
package backoff

import (
	"context"
	"time"
)

// Policy describes a retry schedule.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	// Delay is the delay before the second attempt.
	Delay time.Duration

	// Multiplier scales the delay after every failed attempt.
	Multiplier float64

	// MaxDelay caps the per-attempt delay; zero means no cap.
	MaxDelay time.Duration
}

// DefaultPolicy mirrors the schedule the indexing pipeline historically used:
// up to 5 attempts starting at 4s, doubling, capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Delay:       4 * time.Second,
		Multiplier:  2,
		MaxDelay:    10 * time.Second,
	}
}

// Next returns whether another attempt is allowed after `attempts` failed
// ones, and the delay to wait before it.
func (p Policy) Next(attempts int) (bool, time.Duration) {
	if attempts >= p.MaxAttempts {
		return false, 0
	}
	delay := p.Delay
	mult := p.Multiplier
	if mult <= 1 {
		mult = 2
	}
	for i := 1; i < attempts; i++ {
		delay = time.Duration(float64(delay) * mult)
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return true, delay
}

// Retry runs fn until it succeeds, the policy is exhausted or the context is
// cancelled. The last error is returned.
func Retry(ctx context.Context, policy Policy, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		retry, delay := policy.Next(attempt)
		if !retry {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
