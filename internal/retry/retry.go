// Package retry implements a bounded exponential-backoff retry policy as an
// explicit value composed around a call site, independent of any network
// code.
package retry

import (
	"context"
	"time"
)

// Policy describes when and how to retry an operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// Multiplier grows the delay after each retry.
	Multiplier float64
	// Retryable decides whether an error warrants another attempt. A nil
	// predicate retries every error.
	Retryable func(error) bool
	// Sleep is overridable for tests; defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs fn until it succeeds, exhausts MaxAttempts, hits a non-retryable
// error, or the context is cancelled. The last error is returned.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
