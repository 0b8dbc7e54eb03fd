package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleep records requested delays without waiting.
func fakeSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, Multiplier: 2, Sleep: fakeSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2, Sleep: fakeSleep(&delays)}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 4 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	// Backoff doubles and caps at MaxDelay.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, delays)
}

func TestDoExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2, Sleep: fakeSleep(&delays)}

	wantErr := errors.New("persistent")
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		Retryable:    func(err error) bool { return !errors.Is(err, fatal) },
		Sleep:        func(context.Context, time.Duration) error { return nil },
	}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsStillRunsOnce(t *testing.T) {
	p := Policy{}
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
