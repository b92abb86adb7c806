// Package circuitbreaker fails completion calls fast while the completion
// service keeps failing. It wraps sony/gobreaker with logging and metrics.
// It never retries: a call that is let through and fails is returned to the
// caller unmodified.
package circuitbreaker

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/server/metrics"
)

// State mirrors gobreaker.State.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// CircuitBreaker guards calls to one completion backend.
type CircuitBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCircuitBreaker creates a breaker that opens after cfg.FailureThreshold
// consecutive failures. m may be nil.
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *zap.Logger, m *metrics.Metrics) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := &CircuitBreaker{
		name:    name,
		logger:  logger,
		metrics: m,
	}

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// The caller giving up is not the service failing
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: cb.onStateChange,
	})

	if m != nil {
		m.BreakerState.WithLabelValues(name).Set(float64(StateClosed))
	}
	return cb
}

// Execute runs f unless the breaker is open.
func (cb *CircuitBreaker) Execute(f func() error) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, f()
	})
	return err
}

// State returns the current state of the breaker.
func (cb *CircuitBreaker) State() State {
	return cb.breaker.State()
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

func (cb *CircuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	if to == StateOpen {
		cb.logger.Warn("circuit breaker tripped",
			zap.String("name", name),
			zap.Stringer("from", from),
		)
	} else {
		cb.logger.Info("circuit breaker state changed",
			zap.String("name", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	if cb.metrics == nil {
		return
	}
	cb.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	if to == StateOpen {
		cb.metrics.BreakerTrips.WithLabelValues(name).Inc()
	}
}
