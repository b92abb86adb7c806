// Package server wires the codeshift HTTP service together: configuration,
// completion backend, upload validation, conversion handler, router and the
// http.Server lifecycle.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/conversation"
	"github.com/teilomillet/codeshift/conversion"
	"github.com/teilomillet/codeshift/server/circuitbreaker"
	"github.com/teilomillet/codeshift/server/handlers"
	"github.com/teilomillet/codeshift/server/metrics"
	"github.com/teilomillet/codeshift/server/provider"
	"github.com/teilomillet/codeshift/server/routing"
	"github.com/teilomillet/codeshift/server/validation"
)

// Option customizes a Server.
type Option func(*options)

type options struct {
	backend   conversation.Backend
	lookupEnv func(string) (string, bool)
}

// WithBackend replaces the completion backend selected from the LLM
// configuration.
func WithBackend(b conversation.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLookupEnv replaces os.LookupEnv for credential resolution.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookupEnv = lookup }
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *routing.Router
	metrics    *metrics.Metrics
	breaker    *circuitbreaker.CircuitBreaker
	logger     *zap.Logger
	cfg        *config.Config
}

// NewServer builds every component from cfg. It fails on configuration
// errors only; a missing credential is logged and reported per request.
func NewServer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(&o)
	}

	m := metrics.NewMetrics()

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.CircuitBreaker.Enabled {
		breaker = circuitbreaker.NewCircuitBreaker("completion", cfg.CircuitBreaker, logger, m)
	}

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = provider.NewBackend(cfg.LLM, logger,
			provider.WithMetrics(m),
			provider.WithBreaker(breaker),
		)
		if err != nil {
			return nil, fmt.Errorf("create completion backend: %w", err)
		}
	}

	convCfg := conversion.Config{
		SourceLanguage:       cfg.Converter.SourceLanguage,
		TargetLanguage:       cfg.Converter.TargetLanguage,
		SystemPromptTemplate: cfg.Converter.SystemPrompt,
		DirectiveTemplate:    cfg.Converter.Directive,
	}
	clientCfg := conversation.Config{
		Model:  cfg.LLM.Model,
		APIKey: cfg.LLM.APIKey,
	}
	factory := func() (*conversion.Converter, error) {
		return conversion.NewConverter(convCfg, clientCfg, backend,
			conversation.WithLogger(logger),
			conversation.WithLookupEnv(o.lookupEnv),
		)
	}

	// Build one converter up front so broken templates fail at startup
	if _, err := factory(); err != nil {
		if !stderrors.Is(err, conversation.ErrMissingCredential) {
			return nil, fmt.Errorf("create converter: %w", err)
		}
		logger.Warn("no completion credential configured, conversions will fail until one is provided",
			zap.String("env", conversation.CredentialEnv),
		)
	}

	var counter *validation.TokenCounter
	if cfg.LLM.MaxContextTokens > 0 {
		var err error
		counter, err = validation.NewTokenCounter(cfg.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("create token counter: %w", err)
		}
	}
	validator, err := validation.NewValidator(validation.Rules{
		Field:             cfg.Server.UploadField,
		MaxSize:           cfg.Server.MaxUploadSize,
		AllowedExtensions: cfg.Server.AllowedExtensions,
		MaxTokens:         cfg.LLM.MaxContextTokens,
	}, counter)
	if err != nil {
		return nil, err
	}

	routerOpts := []routing.Option{routing.WithMetrics(m)}
	if breaker != nil {
		routerOpts = append(routerOpts, routing.WithHealthCheck(breaker.Name(), func() error {
			if breaker.State() == circuitbreaker.StateOpen {
				return circuitbreaker.ErrCircuitOpen
			}
			return nil
		}))
	}
	router := routing.NewRouter(cfg, map[string]http.Handler{
		"convert": handlers.NewConvertHandler(validator, factory, m, logger),
	}, logger, routerOpts...)

	return &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Addr(),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
			ErrorLog:       zap.NewStdLog(logger),
		},
		router:  router,
		metrics: m,
		breaker: breaker,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Start listens on the configured address and blocks until ctx is done or
// the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Server started", zap.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("Shutting down server", zap.Duration("timeout", timeout))
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
