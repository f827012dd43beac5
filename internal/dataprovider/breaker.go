// Windowsync - Windowed Data Synchronization for Lazy Client Viewports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/windowsync

package dataprovider

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/windowsync/internal/logging"
	"github.com/tomtom215/windowsync/internal/metrics"
)

// BreakerSettings configures a BreakerProvider.
type BreakerSettings struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests is the number of trial requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period in closed state after which counts reset.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// MinRequests is the minimum number of requests before the failure ratio is considered.
	MinRequests uint32

	// FailureRatio opens the breaker once failures/requests reaches it.
	FailureRatio float64

	// RatePerSecond limits Size and Fetch calls. Zero or negative disables limiting.
	RatePerSecond float64

	// Burst is the token bucket size used with RatePerSecond.
	Burst int
}

// DefaultBreakerSettings mirrors the breaker used in front of remote APIs:
// 3 half-open probes, 1 minute window, 2 minute open timeout, trips at 60%
// failures with at least 10 requests.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:          name,
		MaxRequests:   3,
		Interval:      time.Minute,
		Timeout:       2 * time.Minute,
		MinRequests:   10,
		FailureRatio:  0.6,
		RatePerSecond: 0,
		Burst:         1,
	}
}

// BreakerProvider protects a remote provider with a circuit breaker and an
// optional fetch rate limit. Context cancellation is not counted as a failure.
type BreakerProvider[T any] struct {
	inner   DataProvider[T]
	cb      *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	name    string
}

// NewBreakerProvider wraps inner.
func NewBreakerProvider[T any](inner DataProvider[T], s BreakerSettings) *BreakerProvider[T] {
	if s.Name == "" {
		s.Name = "data-provider"
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio <= 0 || s.FailureRatio > 1 {
		s.FailureRatio = 0.6
	}

	limit := rate.Inf
	if s.RatePerSecond > 0 {
		limit = rate.Limit(s.RatePerSecond)
	}
	burst := s.Burst
	if burst < 1 {
		burst = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	return &BreakerProvider[T]{
		inner:   inner,
		cb:      cb,
		limiter: rate.NewLimiter(limit, burst),
		name:    s.Name,
	}
}

// Unwrap implements Wrapper.
func (p *BreakerProvider[T]) Unwrap() DataProvider[T] {
	return p.inner
}

// State returns the current breaker state.
func (p *BreakerProvider[T]) State() gobreaker.State {
	return p.cb.State()
}

// Size implements DataProvider.
func (p *BreakerProvider[T]) Size(ctx context.Context, q Query) (int, error) {
	result, err := p.execute(ctx, func() (any, error) {
		return p.inner.Size(ctx, q)
	})
	if err != nil {
		return 0, err
	}
	n, ok := result.(int)
	if !ok {
		return 0, fmt.Errorf("circuit breaker: unexpected size result type %T", result)
	}
	return n, nil
}

// Fetch implements DataProvider.
func (p *BreakerProvider[T]) Fetch(ctx context.Context, q Query) ([]T, error) {
	result, err := p.execute(ctx, func() (any, error) {
		return p.inner.Fetch(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	items, ok := result.([]T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected fetch result type %T", result)
	}
	return items, nil
}

// execute waits for a rate limit token and runs fn through the breaker.
func (p *BreakerProvider[T]) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	result, err := p.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "rejected").Inc()
			logging.Warn().Err(err).Str("breaker", p.name).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(p.name, "success").Inc()
	return result, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
