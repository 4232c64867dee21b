package governance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        4 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	rp := NewRetryPolicy(fastRetryConfig())

	attempts, err := rp.Execute(context.Background(), func(context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	rp := NewRetryPolicy(fastRetryConfig())

	calls := 0
	attempts, err := rp.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("upstream unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	rp := NewRetryPolicy(fastRetryConfig())

	boom := errors.New("upstream unavailable")
	attempts, err := rp.Execute(context.Background(), func(context.Context) error {
		return boom
	})

	assert.Equal(t, 3, attempts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, err, boom)
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	cfg := fastRetryConfig()
	permanent := errors.New("bad request")
	cfg.Retryable = func(err error) bool { return !errors.Is(err, permanent) }
	rp := NewRetryPolicy(cfg)

	attempts, err := rp.Execute(context.Background(), func(context.Context) error {
		return permanent
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, permanent)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestExecuteHonorsContextDuringBackoff(t *testing.T) {
	cfg := fastRetryConfig()
	cfg.InitialBackoff = time.Minute
	rp := NewRetryPolicy(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	boom := errors.New("upstream unavailable")
	start := time.Now()
	attempts, err := rp.Execute(ctx, func(context.Context) error {
		return boom
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, boom)
	assert.Less(t, time.Since(start), time.Second)
}

func TestExecuteDoesNotRetryContextErrors(t *testing.T) {
	rp := NewRetryPolicy(fastRetryConfig())

	attempts, err := rp.Execute(context.Background(), func(context.Context) error {
		return context.DeadlineExceeded
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	rp := NewRetryPolicy(RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	})

	assert.Equal(t, 2*time.Second, rp.Backoff(0))
	assert.Equal(t, 4*time.Second, rp.Backoff(1))
	assert.Equal(t, 8*time.Second, rp.Backoff(2))
	assert.Equal(t, 10*time.Second, rp.Backoff(3))
}

func TestNewRetryPolicyNormalisesConfig(t *testing.T) {
	rp := NewRetryPolicy(RetryConfig{})
	cfg := rp.Config()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.MaxBackoff)
	assert.Equal(t, 2.0, cfg.BackoffMultiplier)
}

func TestLimiter(t *testing.T) {
	t.Run("unbounded when capacity is zero", func(t *testing.T) {
		l := NewLimiter(0)
		require.NoError(t, l.Acquire(context.Background()))
		l.Release()
	})

	t.Run("blocks at capacity until released", func(t *testing.T) {
		l := NewLimiter(1)
		require.NoError(t, l.Acquire(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)

		l.Release()
		require.NoError(t, l.Acquire(context.Background()))
		l.Release()
	})
}
