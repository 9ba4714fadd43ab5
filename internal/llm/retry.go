package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds retry-on-capacity behavior: up to MaxRetries attempts
// with linearly increasing backoff (Delay * attemptNumber).
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DoWithRetry runs op up to policy.MaxRetries times, sleeping between
// attempts, and retries only ErrCapacityExceeded. Any other error, and
// capacity errors once attempts are exhausted, propagate to the caller.
// The backoff sleep honors ctx cancellation.
func DoWithRetry[T any](ctx context.Context, policy RetryPolicy, logger *zap.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrCapacityExceeded) {
			return zero, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := policy.Delay * time.Duration(attempt)
		logger.Info("capacity exceeded, backing off before retry",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", attempts),
			zap.Duration("wait", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}
