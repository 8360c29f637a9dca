// Package resilience provides a retry-with-backoff executor guarded by a
// circuit breaker. Network-calling components take it as an injected
// policy, so retry behavior is testable without real delays.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Policy configures retries and the circuit breaker.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	BreakerEnabled      bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

// DefaultPolicy keeps retries short: a missing publication count is worth a
// couple of extra attempts, never a stalled batch.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,

		BreakerEnabled:      true,
		BreakerMinRequests:  10,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  30 * time.Second,
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = def.Multiplier
	}
	if p.BreakerMinRequests == 0 {
		p.BreakerMinRequests = def.BreakerMinRequests
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if p.BreakerOpenTimeout <= 0 {
		p.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	return p
}

// Executor runs operations under the configured policy.
type Executor struct {
	policy  Policy
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker[any]

	// wait is swapped out in tests to avoid real delays.
	wait func(ctx context.Context, d time.Duration) error
}

func NewExecutor(name string, policy Policy, logger *zap.Logger) *Executor {
	policy = policy.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Executor{
		policy: policy,
		logger: logger,
		wait:   waitFor,
	}

	if policy.BreakerEnabled {
		e.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    name,
			Timeout: policy.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < policy.BreakerMinRequests {
					return false
				}
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return ratio >= policy.BreakerFailureRatio
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("operation", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return e
}

// Do executes fn, retrying on failure with exponential backoff up to the
// attempt cap. When the breaker is open, calls fail immediately.
func (e *Executor) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	if e.breaker == nil {
		return e.doWithRetry(ctx, operation, fn)
	}

	_, err := e.breaker.Execute(func() (any, error) {
		return nil, e.doWithRetry(ctx, operation, fn)
	})
	return err
}

func (e *Executor) doWithRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	backoff := e.policy.InitialBackoff

	var err error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == e.policy.MaxAttempts {
			break
		}

		e.logger.Warn("retrying after failure",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.policy.MaxAttempts),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		if waitErr := e.wait(ctx, backoff); waitErr != nil {
			return err
		}

		backoff = time.Duration(float64(backoff) * e.policy.Multiplier)
		if backoff > e.policy.MaxBackoff {
			backoff = e.policy.MaxBackoff
		}
	}

	return err
}

// IsCircuitOpen reports whether err came from an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
