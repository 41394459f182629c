package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork wraps redis failures that survived every retry.
	ErrNetwork = errors.New("cache network error")

	// ErrCorrupt wraps decode failures. FileCache returns it for a broken
	// envelope; the pipeline runner wraps payloads that no longer unmarshal.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// RetryableError marks a failure that Backoff.Retry may try again.
type RetryableError struct{ Err error }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, was marked Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff describes a bounded exponential retry schedule.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is used by RedisCache: three attempts, starting at 50ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 50 * time.Millisecond}

// Retry calls fn until it succeeds, returns an error not wrapped with
// Retryable, or the attempts run out. The delay doubles after each attempt.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
