package utils

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds calls to slow or flaky model backends.
type RetryPolicy struct {
	CallTimeout time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
}

// Normalise fills zero fields with defaults.
func (p RetryPolicy) Normalise() RetryPolicy {
	if p.CallTimeout <= 0 {
		p.CallTimeout = 10 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseBackoff <= 0 {
		p.BaseBackoff = 100 * time.Millisecond
	}
	return p
}

// Permanent marks an error that must not be retried.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Retry runs fn under a per-attempt timeout until it succeeds, returns a
// Permanent error, the parent context ends, or attempts run out. The final
// error is tagged with ErrServiceUnavailable.
func Retry[T any](ctx context.Context, op string, policy RetryPolicy, fn func(context.Context) (T, error)) (T, int, error) {
	policy = policy.Normalise()
	var (
		zero    T
		lastErr error
	)
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt, err
		}
		callCtx, cancel := context.WithTimeout(ctx, policy.CallTimeout)
		value, err := fn(callCtx)
		cancel()
		if err == nil {
			return value, attempt + 1, nil
		}
		var perm *Permanent
		if errors.As(err, &perm) {
			return zero, attempt + 1, perm.Err
		}
		lastErr = err
		if attempt < policy.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, attempt + 1, ctx.Err()
			case <-time.After(backoff(policy.BaseBackoff, attempt)):
			}
		}
	}
	return zero, policy.MaxAttempts, Unavailable(op, lastErr)
}

func backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(1<<attempt) * base
}
