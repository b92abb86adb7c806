// Package provider builds the completion backends the conversation client
// talks to. The openai backend uses the official OpenAI SDK; every other
// provider name is handed to gollm. Both can be decorated with metrics and a
// circuit breaker.
package provider

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/conversation"
	"github.com/teilomillet/codeshift/server/circuitbreaker"
	"github.com/teilomillet/codeshift/server/metrics"
)

// OpenAI is the provider name served by the OpenAI SDK backend.
const OpenAI = "openai"

// Option customizes NewBackend.
type Option func(*options)

type options struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
	breaker    *circuitbreaker.CircuitBreaker
	newLLM     llmFactory
}

// WithHTTPClient replaces the HTTP client used by the openai backend.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMetrics records latency and failures of every completion call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBreaker guards every completion call with cb. The breaker is shared
// by all completers the backend creates.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(o *options) { o.breaker = cb }
}

// NewBackend returns the conversation.Backend selected by cfg.Provider.
// The backend is called once per conversation with the resolved credential.
func NewBackend(cfg config.LLMConfig, logger *zap.Logger, opts ...Option) (conversation.Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{newLLM: newGollm}
	for _, opt := range opts {
		opt(&o)
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		return nil, fmt.Errorf("llm provider is required")
	}

	var build conversation.Backend
	if name == OpenAI {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: cfg.Timeout}
		}
		build = func(apiKey string) (conversation.Completer, error) {
			return NewOpenAICompleter(apiKey, cfg.Endpoint, httpClient), nil
		}
	} else {
		build = func(apiKey string) (conversation.Completer, error) {
			return NewGollmCompleter(o.newLLM, name, cfg.Model, apiKey, cfg.Endpoint)
		}
	}

	logger.Info("completion backend configured",
		zap.String("provider", name),
		zap.String("model", cfg.Model),
		zap.Bool("circuit_breaker", o.breaker != nil),
	)

	return func(apiKey string) (conversation.Completer, error) {
		c, err := build(apiKey)
		if err != nil {
			return nil, err
		}
		if o.breaker != nil {
			c = Guard(c, o.breaker)
		}
		if o.metrics != nil {
			c = Instrument(c, name, o.metrics)
		}
		return c, nil
	}, nil
}
