// Package retry wraps blocking calls to external services (embedding model,
// vector store, generation API) in bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// RetryableError marks a transient failure that is worth another attempt.
// StatusCode is the upstream HTTP status when there is one.
type RetryableError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RetryableError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("retryable error (status %d): %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return "retryable error: " + e.Err.Error()
	default:
		return "retryable error: " + e.Message
	}
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Context errors and nil pass through.
func Transient(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RetryableError{Err: err}
}

// RetryableStatus reports whether an upstream HTTP status is transient:
// request timeout, rate limiting or a server error.
func RetryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Policy bounds the number of retries and the delay between them.
type Policy struct {
	MaxRetries   int           // Retries after the first attempt
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on any single delay
}

// DefaultPolicy returns 3 retries starting at 1s, capped at 16s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
	}
}

// Backoff returns the delay before retry n (0-indexed): InitialDelay doubled
// n times plus up to 50% jitter, never more than MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.InitialDelay
	for i := 0; i < attempt && base < p.MaxDelay; i++ {
		base *= 2
	}
	if base > p.MaxDelay {
		base = p.MaxDelay
	}
	if base <= 1 {
		return base
	}
	return min(base+time.Duration(rand.Int64N(int64(base)/2)), p.MaxDelay)
}

// Do runs fn until it succeeds, returns a non-retryable error, the policy is
// exhausted, or ctx is done.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoValue is Do for functions that return a result.
func DoValue[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(p.Backoff(attempt - 1)):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, fmt.Errorf("failed after %d retries: %w", p.MaxRetries, lastErr)
}
