package api

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRetryPolicy reports a misconfigured RetryPolicy.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// RetryPolicy bounds WithRetry. Delay grows exponentially from BaseDelay and
// is capped at MaxDelay. Sleep is injectable for tests; nil uses a
// context-aware timer.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleep       func(ctx context.Context, delay time.Duration) error
}

// DefaultRetryPolicy is a sane bound for interactive callers.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

func (policy RetryPolicy) validate() error {
	if policy.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least one", ErrInvalidRetryPolicy)
	}
	if policy.BaseDelay <= 0 {
		return fmt.Errorf("%w: base delay must be positive", ErrInvalidRetryPolicy)
	}
	if policy.MaxDelay < policy.BaseDelay {
		return fmt.Errorf("%w: max delay below base delay", ErrInvalidRetryPolicy)
	}
	return nil
}

func (policy RetryPolicy) delayFor(attempt int) time.Duration {
	delay := policy.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	return delay
}

func (policy RetryPolicy) sleep(ctx context.Context, delay time.Duration) error {
	if policy.Sleep != nil {
		return policy.Sleep(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry runs op until it succeeds, fails with a non-retryable error, or
// exhausts the attempt budget. Only network and server-side failures are
// retried; auth, validation, and not-found errors return immediately.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := policy.validate(); err != nil {
		return zero, err
	}
	var lastError error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := policy.sleep(ctx, policy.delayFor(attempt-1)); err != nil {
				return zero, err
			}
		}
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		lastError = err
		var apiError *APIError
		if !errors.As(err, &apiError) || !apiError.IsRetryable() {
			return zero, err
		}
	}
	return zero, lastError
}
