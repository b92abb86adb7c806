package provider

import (
	"context"
	"time"

	"github.com/teilomillet/codeshift/conversation"
	"github.com/teilomillet/codeshift/server/circuitbreaker"
	"github.com/teilomillet/codeshift/server/metrics"
)

// Guard runs every call of c through cb.
func Guard(c conversation.Completer, cb *circuitbreaker.CircuitBreaker) conversation.Completer {
	return conversation.CompleterFunc(func(ctx context.Context, model string, messages []conversation.Message) (string, error) {
		var reply string
		err := cb.Execute(func() error {
			var err error
			reply, err = c.Complete(ctx, model, messages)
			return err
		})
		return reply, err
	})
}

// Instrument records the latency of every call of c and counts failures,
// including calls rejected by a breaker.
func Instrument(c conversation.Completer, provider string, m *metrics.Metrics) conversation.Completer {
	return conversation.CompleterFunc(func(ctx context.Context, model string, messages []conversation.Message) (string, error) {
		start := time.Now()
		reply, err := c.Complete(ctx, model, messages)
		m.CompletionLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		if err != nil {
			m.CompletionErrors.WithLabelValues(provider).Inc()
		}
		return reply, err
	})
}
