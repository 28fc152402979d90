package llm

import (
	"context"
	"testing"
	"time"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         0.001,
		MaxDelay:          0.01,
		BackoffMultiplier: 2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(), func(_ context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", ErrorFromStatusCode(503, "unavailable", "anthropic", "", nil)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %q", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func(_ context.Context) (string, error) {
		calls++
		return "", ErrorFromStatusCode(401, "bad key", "anthropic", "", nil)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error must not be retried, got %d calls", calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func(_ context.Context) (string, error) {
		calls++
		return "", ErrorFromStatusCode(500, "down", "anthropic", "", nil)
	})
	if err == nil {
		t.Fatal("expected error after budget exhaustion")
	}
	// Initial attempt plus MaxRetries.
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryRespectsRetryAfterCap(t *testing.T) {
	retryAfter := 120.0 // exceeds MaxDelay
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(), func(_ context.Context) (string, error) {
		calls++
		return "", ErrorFromStatusCode(429, "slow down", "anthropic", "", &retryAfter)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("oversized Retry-After should fail fast, got %d calls", calls)
	}
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := fastPolicy()
	policy.BaseDelay = 10 // force the wait path
	_, err := Retry(ctx, policy, func(_ context.Context) (string, error) {
		return "", ErrorFromStatusCode(503, "unavailable", "anthropic", "", nil)
	})
	if _, ok := err.(*AbortError); !ok {
		t.Fatalf("expected AbortError, got %T", err)
	}
}

func TestDelayBackoff(t *testing.T) {
	policy := RetryPolicy{BaseDelay: 1, MaxDelay: 60, BackoffMultiplier: 2}
	if d := policy.Delay(0); d != time.Second {
		t.Errorf("attempt 0 delay = %v, want 1s", d)
	}
	if d := policy.Delay(1); d != 2*time.Second {
		t.Errorf("attempt 1 delay = %v, want 2s", d)
	}
	if d := policy.Delay(10); d != 60*time.Second {
		t.Errorf("attempt 10 delay = %v, want max 60s", d)
	}
}

func TestRetryMiddleware(t *testing.T) {
	calls := 0
	mock := &mockExecutor{name: "flaky"}
	client := NewClient(
		WithProvider("flaky", mock),
		WithMiddleware(RetryMiddleware(fastPolicy())),
	)
	mockHandler := func(ctx context.Context, req TurnRequest, next func(context.Context, TurnRequest) (*TurnResponse, error)) (*TurnResponse, error) {
		calls++
		if calls < 2 {
			return nil, ErrorFromStatusCode(503, "unavailable", "anthropic", "", nil)
		}
		return &TurnResponse{Content: []ContentBlock{TextBlock("recovered")}}, nil
	}
	client.middleware = append(client.middleware, mockHandler)

	resp, err := client.ExecuteTurn(context.Background(), TurnRequest{Model: "any"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "recovered" {
		t.Errorf("expected recovery through retry, got %q", resp.Text())
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}
