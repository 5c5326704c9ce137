package remote

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestExecuteWithRetry_TransportErrorRetried verifies transient failures retry.
func TestExecuteWithRetry_TransportErrorRetried(t *testing.T) {
	calls := 0
	result := ExecuteWithRetry(context.Background(), RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return &transportError{err: errors.New("connection refused")}
		}
		return nil
	})

	if !result.Success || result.Attempts != 3 {
		t.Errorf("expected success after 3 attempts, got %s", result)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 recorded errors, got %d", len(result.Errors))
	}
}

// TestExecuteWithRetry_SemanticErrorNotRetried verifies other errors stop immediately.
//
// Red-Flag: never retry semantic errors.
func TestExecuteWithRetry_SemanticErrorNotRetried(t *testing.T) {
	calls := 0
	result := ExecuteWithRetry(context.Background(), RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond}, func() error {
		calls++
		return &statusError{code: 400}
	})

	if result.Success || calls != 1 {
		t.Errorf("expected a single failed attempt, got %d calls", calls)
	}
}

// TestExecuteWithRetry_ContextCancelled verifies cancellation stops retries.
func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := ExecuteWithRetry(ctx, DefaultRetryConfig(), func() error {
		t.Error("fn must not run with a cancelled context")
		return nil
	})

	if result.Success || !errors.Is(result.LastError, context.Canceled) {
		t.Errorf("expected context.Canceled, got %s", result)
	}
}

// TestIsRetryable verifies classification.
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport", &transportError{err: errors.New("reset")}, true},
		{"transport wrapping cancel", &transportError{err: context.Canceled}, false},
		{"status", &statusError{code: 503}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
