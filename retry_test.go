package s3

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryRetriesRetryableStatusThenSucceeds(t *testing.T) {
	attempts := 0
	policy := RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	resp, err := withRetry(context.Background(), policy, func() (*Response, error) {
		attempts++
		if attempts < 3 {
			return &Response{StatusCode: 503}, nil
		}
		return &Response{StatusCode: 200}, nil
	})

	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("final status = %d, want 200", resp.StatusCode)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryDisabledMakesExactlyOneAttempt(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), RetryPolicy{}, func() (*Response, error) {
		attempts++
		return &Response{StatusCode: 503}, nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 with retries disabled", attempts)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	sentinel := errors.New("boom")
	policy := RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}

	_, err := withRetry(context.Background(), policy, func() (*Response, error) {
		attempts++
		return nil, sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("a non-network error should not be retried, got %d attempts", attempts)
	}
}

func TestIsRetryableNetworkErrorExcludesContextCancellation(t *testing.T) {
	if isRetryableNetworkError(context.Canceled) {
		t.Errorf("context.Canceled should not be retryable")
	}
	if isRetryableNetworkError(context.DeadlineExceeded) {
		t.Errorf("context.DeadlineExceeded should not be retryable")
	}
}
