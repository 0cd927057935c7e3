// Package retry provides retry and polling helpers with exponential backoff.
//
// Adapters use Do for transient RPC/HTTP failures; the transactor uses Poll to
// wait for transaction receipts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrExhausted is wrapped by the error returned from Do when every attempt failed
// with a retryable error.
var ErrExhausted = errors.New("retries exhausted")

// Config holds configuration for retry behavior.
type Config struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries, just the initial attempt).
	MaxRetries int

	// InitialBackoff is the initial backoff duration before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps exponential growth.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each retry (default: 2.0).
	BackoffFactor float64

	// Jitter adds rand(0, backoff) to every wait.
	Jitter bool
}

// DefaultConfig returns the configuration used for RPC calls.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

// IsRetryableFunc determines if an error should trigger a retry.
type IsRetryableFunc func(error) bool

// OnRetryFunc is called before each retry attempt. attempt is 1-indexed.
type OnRetryFunc func(attempt int, err error, backoff time.Duration)

func (c Config) withDefaults() Config {
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 10 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 100 * time.Millisecond
	}
	return c
}

func (c Config) next(backoff time.Duration) time.Duration {
	backoff = time.Duration(float64(backoff) * c.BackoffFactor)
	if backoff > c.MaxBackoff {
		return c.MaxBackoff
	}
	return backoff
}

func (c Config) wait(backoff time.Duration) time.Duration {
	if !c.Jitter || backoff <= 0 {
		return backoff
	}
	return backoff + time.Duration(rand.Int63n(int64(backoff)))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes fn, retrying while isRetryable reports true, up to cfg.MaxRetries
// additional times. Non-retryable errors are returned unwrapped.
//
//	receipt, err := retry.Do(ctx, retry.DefaultConfig(), isTransient, nil, func() (*types.Receipt, error) {
//	    return client.TransactionReceipt(ctx, hash)
//	})
func Do[T any](
	ctx context.Context,
	cfg Config,
	isRetryable IsRetryableFunc,
	onRetry OnRetryFunc,
	fn func() (T, error),
) (T, error) {
	var zero T
	cfg = cfg.withDefaults()

	backoff := cfg.InitialBackoff
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			d := cfg.wait(backoff)
			if onRetry != nil {
				onRetry(attempt, lastErr, d)
			}
			if err := sleep(ctx, d); err != nil {
				return zero, fmt.Errorf("context cancelled while retrying: %w", err)
			}
			backoff = cfg.next(backoff)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("operation failed after %d retries: %w: %w", cfg.MaxRetries, ErrExhausted, lastErr)
}

// DoVoid is like Do but for functions that don't return a value.
func DoVoid(
	ctx context.Context,
	cfg Config,
	isRetryable IsRetryableFunc,
	onRetry OnRetryFunc,
	fn func() error,
) error {
	_, err := Do(ctx, cfg, isRetryable, onRetry, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Poll calls fn until it reports done, returns an error, or ctx ends. The wait
// between calls grows from interval by cfg.BackoffFactor up to cfg.MaxBackoff;
// MaxRetries is ignored. Use a context deadline to bound the total wait.
func Poll[T any](ctx context.Context, cfg Config, fn func() (T, bool, error)) (T, error) {
	var zero T
	cfg = cfg.withDefaults()

	backoff := cfg.InitialBackoff
	for {
		result, done, err := fn()
		if err != nil {
			return zero, err
		}
		if done {
			return result, nil
		}
		if err := sleep(ctx, cfg.wait(backoff)); err != nil {
			return zero, fmt.Errorf("polling stopped: %w", err)
		}
		backoff = cfg.next(backoff)
	}
}
