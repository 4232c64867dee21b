package governance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMaxRetriesExceeded is returned when all retry attempts have been exhausted.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// RetryConfig defines retry behavior for guarded agent invocations.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// BackoffMultiplier is the factor by which backoff increases.
	BackoffMultiplier float64
	// Retryable classifies errors; a nil classifier retries everything
	// except context cancellation.
	Retryable func(error) bool
}

// DefaultRetryConfig returns the platform retry defaults: three attempts
// with exponential backoff starting at 2s, doubling, capped at 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryPolicy executes operations under a bounded retry discipline.
type RetryPolicy struct {
	config RetryConfig
}

// NewRetryPolicy creates a retry policy, normalising out-of-range settings
// to the defaults.
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	defaults := DefaultRetryConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}
	return &RetryPolicy{config: config}
}

// Config returns a copy of the current retry configuration.
func (rp *RetryPolicy) Config() RetryConfig {
	return rp.config
}

// Backoff returns the delay before the retry following the given
// zero-based attempt.
func (rp *RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := time.Duration(float64(rp.config.InitialBackoff) * math.Pow(rp.config.BackoffMultiplier, float64(attempt)))
	if backoff > rp.config.MaxBackoff {
		backoff = rp.config.MaxBackoff
	}
	return backoff
}

// Execute runs fn until it succeeds, a non-retryable error occurs, the
// attempt budget runs out, or ctx is done. The backoff wait respects ctx
// cancellation, so a deadline covering the whole guarded call also cuts
// pending retry waits short. On exhaustion the last error propagates,
// wrapped with ErrMaxRetriesExceeded.
//
// Attempts reports how many times fn actually ran.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) error) (attempts int, err error) {
	var lastErr error

	for attempt := 0; attempt < rp.config.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if lastErr != nil {
				return attempts, lastErr
			}
			return attempts, ctxErr
		}

		attempts++
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempts, nil
		}

		if !rp.shouldRetry(lastErr) {
			return attempts, lastErr
		}

		if attempt < rp.config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return attempts, lastErr
			case <-time.After(rp.Backoff(attempt)):
			}
		}
	}

	return attempts, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

func (rp *RetryPolicy) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if rp.config.Retryable != nil {
		return rp.config.Retryable(err)
	}
	return true
}
