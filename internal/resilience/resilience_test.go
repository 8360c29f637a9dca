package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func noWait(_ context.Context, _ time.Duration) error { return nil }

func TestExecutorRetriesUntilSuccess(t *testing.T) {
	exec := NewExecutor("test", Policy{MaxAttempts: 3}, zap.NewNop())
	exec.wait = noWait

	calls := 0
	err := exec.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecutorGivesUpAfterMaxAttempts(t *testing.T) {
	exec := NewExecutor("test", Policy{MaxAttempts: 2, BreakerEnabled: false}, zap.NewNop())
	exec.wait = noWait

	calls := 0
	wantErr := errors.New("permanent")
	err := exec.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestExecutorBackoffGrowsAndCaps(t *testing.T) {
	exec := NewExecutor("test", Policy{
		MaxAttempts:    4,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     250 * time.Millisecond,
		Multiplier:     2.0,
		BreakerEnabled: false,
	}, zap.NewNop())

	var waits []time.Duration
	exec.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_ = exec.Do(context.Background(), "op", func(context.Context) error {
		return errors.New("always")
	})

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 250 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("expected %d waits, got %d (%v)", len(want), len(waits), waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestExecutorHonorsCancelledContext(t *testing.T) {
	exec := NewExecutor("test", Policy{MaxAttempts: 3, BreakerEnabled: false}, zap.NewNop())
	exec.wait = noWait

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := exec.Do(ctx, "op", func(context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no attempts after cancellation, got %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	exec := NewExecutor("test", Policy{
		MaxAttempts:         1,
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	}, zap.NewNop())
	exec.wait = noWait

	for i := 0; i < 3; i++ {
		_ = exec.Do(context.Background(), "op", func(context.Context) error {
			return errors.New("down")
		})
	}

	calls := 0
	err := exec.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	})
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no call through an open breaker, got %d", calls)
	}
}
