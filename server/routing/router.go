// Package routing builds the codeshift HTTP router from the configured
// routes. Every route names a handler (convert, health or metrics), an
// optional API version and the methods it accepts.
package routing

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/errors"
	"github.com/teilomillet/codeshift/server/metrics"
	"github.com/teilomillet/codeshift/server/middleware"
)

// APIPrefix is prepended to the path of every versioned route, so version
// "v1" and path "/convert" mount /api/v1/convert.
const APIPrefix = "/api"

// HealthCheck reports a dependency's health. A nil error means healthy.
type HealthCheck func() error

// Option customizes a Router.
type Option func(*Router)

// WithMetrics records request metrics and serves them on "metrics" routes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithHealthCheck adds a named check to the health endpoint.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(r *Router) {
		if r.checks == nil {
			r.checks = make(map[string]HealthCheck)
		}
		r.checks[name] = check
	}
}

// Router handles versioned HTTP routing with a shared middleware chain.
type Router struct {
	router   chi.Router
	handlers map[string]http.Handler
	checks   map[string]HealthCheck
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      *config.Config
}

// NewRouter creates a router for cfg.Routes. handlers maps handler names to
// implementations; "health" and "metrics" fall back to the router's own
// handlers when absent.
func NewRouter(cfg *config.Config, handlers map[string]http.Handler, logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		router:   chi.NewRouter(),
		handlers: handlers,
		logger:   logger,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.CORS(middleware.NewCORSPolicy(cfg.Server.Debug, cfg.Server.CORSOrigins)))
	r.router.Use(middleware.Logging(logger))
	if r.metrics != nil {
		r.router.Use(middleware.PrometheusMetrics(r.metrics))
	}
	r.router.Use(errors.ErrorHandler(logger))

	r.router.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.ErrorWithType(w, "Not Found", errors.NotFoundError, http.StatusNotFound)
	})

	r.setupRoutes()

	return r
}

// setupRoutes mounts every configured route on its versioned path and
// restricts it to its methods.
func (r *Router) setupRoutes() {
	for _, route := range r.cfg.Routes {
		handler, ok := r.handler(route.Handler)
		if !ok {
			r.logger.Error("handler not found", zap.String("handler", route.Handler))
			continue
		}

		path := RoutePath(route)

		methods := route.Methods
		if len(methods) == 0 {
			methods = []string{http.MethodGet}
		}
		for _, method := range methods {
			r.router.Method(method, path, handler)
		}

		r.logger.Debug("route mounted",
			zap.String("path", path),
			zap.String("handler", route.Handler),
			zap.Strings("methods", methods),
		)
	}
}

// RoutePath returns the path a route is mounted on.
func RoutePath(route config.RouteConfig) string {
	if route.Version == "" {
		return route.Path
	}
	return APIPrefix + "/" + route.Version + route.Path
}

func (r *Router) handler(name string) (http.Handler, bool) {
	if h, ok := r.handlers[name]; ok {
		return h, true
	}
	switch name {
	case "health":
		return r.healthHandler(), true
	case "metrics":
		if r.metrics != nil {
			return r.metrics.Handler(), true
		}
	}
	return nil, false
}

// healthHandler runs every registered check. Any failure turns the overall
// status to unhealthy and the response code to 503.
func (r *Router) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		healthy := true
		statuses := make(map[string]string)

		names := make([]string, 0, len(r.checks))
		for name := range r.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if err := r.checks[name](); err != nil {
				healthy = false
				statuses[name] = err.Error()
				continue
			}
			statuses[name] = "healthy"
		}

		status := "healthy"
		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			status = "unhealthy"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": statuses,
		}); err != nil {
			r.logger.Error("failed to encode health response", zap.Error(err))
		}
	}
}

// ServeHTTP implements the http.Handler interface.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
