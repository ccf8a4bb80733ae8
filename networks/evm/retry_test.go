package evm

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestWithRetryExhaustsBudget(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, testTuning())

	calls := 0
	err := adapter.withRetry(context.Background(), "test op", func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	if err == nil {
		t.Fatal("expected the final error to propagate")
	}
	if calls != adapter.config.Retry.MaxRetries {
		t.Errorf("expected exactly %d attempts, got %d", adapter.config.Retry.MaxRetries, calls)
	}
}

func TestWithRetryNonRetryableFailsFast(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, testTuning())

	calls := 0
	err := adapter.withRetry(context.Background(), "test op", func(ctx context.Context) error {
		calls++
		return errors.New("insufficient funds for gas * price + value")
	})

	if err == nil {
		t.Fatal("expected the error to propagate")
	}
	if calls != 1 {
		t.Errorf("expected a single attempt for a non-retryable error, got %d", calls)
	}
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, testTuning())

	calls := 0
	err := adapter.withRetry(context.Background(), "test op", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("request timed out")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	tuning := testTuning()
	tuning.Retry.BaseDelay = time.Second
	adapter := newTestAdapter(&fakeChain{}, tuning)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := adapter.withRetry(ctx, "test op", func(ctx context.Context) error {
		calls++
		return errors.New("connection reset")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the cancellation to interrupt the first backoff, got %d attempts", calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}

	for _, tt := range tests {
		if got := backoffDelay(base, max, 2.0, tt.attempt); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	adapter := newTestAdapter(&fakeChain{}, testTuning())

	if adapter.isRetryable(nil) {
		t.Error("nil error must not be retryable")
	}
	if !adapter.isRetryable(errors.New("Nonce too low")) {
		t.Error("nonce conflicts should be retryable regardless of case")
	}
	if adapter.isRetryable(errors.New("execution reverted")) {
		t.Error("execution failures must not be retryable")
	}
}
