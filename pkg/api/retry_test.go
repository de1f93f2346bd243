package api

import (
	"context"
	"errors"
	"testing"
	"time"
)

const successValue = "ok"

func recordingPolicy(delays *[]time.Duration) RetryPolicy {
	policy := DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, delay time.Duration) error {
		*delays = append(*delays, delay)
		return nil
	}
	return policy
}

func TestWithRetryRecoversFromNetworkErrors(test *testing.T) {
	test.Parallel()
	var delays []time.Duration
	attempts := 0
	value, err := WithRetry(context.Background(), recordingPolicy(&delays), func(ctx context.Context) (string, error) {
		attempts++
		if attempts <= 2 {
			return "", &APIError{Code: ErrCodeNetwork, Message: "connection refused"}
		}
		return successValue, nil
	})
	if err != nil {
		test.Fatalf("expected success after retries, got %v", err)
	}
	if value != successValue {
		test.Fatalf("expected %q, got %q", successValue, value)
	}
	if attempts != 3 {
		test.Fatalf("expected exactly two retries, got %d attempts", attempts)
	}
	if len(delays) != 2 {
		test.Fatalf("expected two sleeps, got %d", len(delays))
	}
	for i := 1; i < len(delays); i++ {
		if delays[i] < delays[i-1] {
			test.Fatalf("expected non-decreasing delays, got %v", delays)
		}
	}
}

func TestWithRetryNeverRetriesNonRetryableCodes(test *testing.T) {
	test.Parallel()
	testCases := []ErrorCode{
		ErrCodeUnauthorized,
		ErrCodeValidation,
		ErrCodeNotFound,
		ErrCodePremiumRequired,
		ErrCodeTimeout,
	}
	for _, code := range testCases {
		code := code
		test.Run(string(code), func(test *testing.T) {
			test.Parallel()
			attempts := 0
			var delays []time.Duration
			_, err := WithRetry(context.Background(), recordingPolicy(&delays), func(ctx context.Context) (int, error) {
				attempts++
				return 0, &APIError{Code: code}
			})
			apiError := asAPIError(test, err)
			if apiError.Code != code {
				test.Fatalf(codeMismatchMessage, code, apiError.Code)
			}
			if attempts != 1 {
				test.Fatalf("expected a single attempt for %s, got %d", code, attempts)
			}
		})
	}
}

func TestWithRetryExhaustsAttemptBudget(test *testing.T) {
	test.Parallel()
	var delays []time.Duration
	policy := recordingPolicy(&delays)
	policy.MaxAttempts = 4
	attempts := 0
	_, err := WithRetry(context.Background(), policy, func(ctx context.Context) (int, error) {
		attempts++
		return 0, &APIError{Code: ErrCodeServer, Message: defaultMessage500}
	})
	apiError := asAPIError(test, err)
	if apiError.Code != ErrCodeServer {
		test.Fatalf(codeMismatchMessage, ErrCodeServer, apiError.Code)
	}
	if attempts != policy.MaxAttempts {
		test.Fatalf("expected %d attempts, got %d", policy.MaxAttempts, attempts)
	}
}

func TestWithRetryDelayIsCapped(test *testing.T) {
	test.Parallel()
	policy := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 4 * time.Second}
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if delay := policy.delayFor(attempt); delay > policy.MaxDelay {
			test.Fatalf("delay %v exceeds ceiling %v", delay, policy.MaxDelay)
		}
	}
}

func TestWithRetryRejectsInvalidPolicy(test *testing.T) {
	test.Parallel()
	_, err := WithRetry(context.Background(), RetryPolicy{}, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	if !errors.Is(err, ErrInvalidRetryPolicy) {
		test.Fatalf("expected ErrInvalidRetryPolicy, got %v", err)
	}
}

func TestWithRetryStopsOnCanceledContext(test *testing.T) {
	test.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultRetryPolicy()
	policy.Sleep = func(ctx context.Context, delay time.Duration) error {
		return ctx.Err()
	}
	attempts := 0
	_, err := WithRetry(ctx, policy, func(ctx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, &APIError{Code: ErrCodeNetwork}
	})
	if !errors.Is(err, context.Canceled) {
		test.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		test.Fatalf("expected one attempt before cancellation, got %d", attempts)
	}
}
