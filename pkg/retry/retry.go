// Package retry runs fallible calls with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMaxAttemptsExceeded is wrapped into the returned error when every attempt failed
	// with a retryable error.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context ends while waiting between attempts
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Sleeper suspends for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Config configures retry behavior
type Config struct {
	// MaxRetries is the number of attempts after the first one
	MaxRetries int
	// BaseDelay is the wait before the first retry
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay after every failed attempt
	BackoffFactor float64
	// Sleep replaces the timer based wait, mostly for tests
	Sleep Sleeper
	// OnRetry is called before every wait with the failed attempt number
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns 3 retries starting at 1s, doubling, capped at 30s.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2,
	}
}

func (c Config) normalized() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = 0
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2
	}
	if c.Sleep == nil {
		c.Sleep = timerSleep
	}
	return c
}

// Backoff returns the wait after the given failed attempt (1-based):
// min(BaseDelay * BackoffFactor^(attempt-1), MaxDelay). There is no jitter.
func (c Config) Backoff(attempt int) time.Duration {
	c = c.normalized()
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt-1))
	if delay > float64(c.MaxDelay) || math.IsInf(delay, 0) {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

// Execute calls op up to MaxRetries+1 times. A failure is retried only when isRetryable
// reports true; a nil classifier means DefaultIsRetryable.
func Execute[T any](ctx context.Context, cfg Config, isRetryable func(error) bool, op func(context.Context) (T, error)) (T, error) {
	cfg = cfg.normalized()
	if isRetryable == nil {
		isRetryable = DefaultIsRetryable
	}

	var zero T
	maxAttempts := cfg.MaxRetries + 1

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !isRetryable(err) {
			return zero, fmt.Errorf("failed after %d attempt(s): %w", attempt, err)
		}
		if attempt >= maxAttempts {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, attempt, err)
		}

		delay := cfg.Backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}
		if err := cfg.Sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}
	}
}

// Do is Execute for operations without a result.
func Do(ctx context.Context, cfg Config, isRetryable func(error) bool, op func(context.Context) error) error {
	_, err := Execute(ctx, cfg, isRetryable, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
