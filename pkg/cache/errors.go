package cache

import (
	"context"
	"errors"
	"time"

	stanzaerrors "github.com/matzehuels/stanza/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryPolicy controls [RetryPolicy.Do].
type RetryPolicy struct {
	Attempts int           // Total number of calls, including the first
	Delay    time.Duration // Wait before the second call, doubled afterwards
	MaxDelay time.Duration // Upper bound for any single wait, including Retry-After
}

// DefaultRetry is used by [RetryWithBackoff].
var DefaultRetry = RetryPolicy{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}

// RetryWithBackoff retries fn with [DefaultRetry].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultRetry.Do(ctx, fn)
}

// Do calls fn until it succeeds, returns an error not wrapped with
// Retryable, or the attempts are used up. A rate-limit error carrying a
// Retry-After hint stretches the next wait to that hint.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			wait := delay
			var rl *stanzaerrors.RateLimitedError
			if errors.As(lastErr, &rl) && rl.RetryAfter > 0 {
				wait = max(wait, time.Duration(rl.RetryAfter)*time.Second)
			}
			if p.MaxDelay > 0 {
				wait = min(wait, p.MaxDelay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				delay *= 2
			}
		}
	}
	return lastErr
}
