package routing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/server/metrics"
	"github.com/teilomillet/codeshift/server/middleware"
)

func testConfig(routes ...config.RouteConfig) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Routes = routes
	return cfg
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

// TestRouter_NewRouter tests the creation of a new router
func TestRouter_NewRouter(t *testing.T) {
	cfg := testConfig(config.RouteConfig{Path: "/convert", Handler: "convert", Version: "v1"})
	handlers := map[string]http.Handler{"convert": okHandler("ok")}

	router := NewRouter(cfg, handlers, zap.NewNop())

	assert.NotNil(t, router)
	assert.NotNil(t, router.router)
	assert.Equal(t, handlers, router.handlers)
}

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/api/v1/convert", RoutePath(config.RouteConfig{Path: "/convert", Version: "v1"}))
	assert.Equal(t, "/convert", RoutePath(config.RouteConfig{Path: "/convert"}))
}

// TestRouter_VersionedRouting tests that the versioned and legacy paths both reach their handlers
func TestRouter_VersionedRouting(t *testing.T) {
	cfg := testConfig(
		config.RouteConfig{Path: "/convert", Handler: "convert", Version: "v1", Methods: []string{"POST"}},
		config.RouteConfig{Path: "/convert", Handler: "legacy", Methods: []string{"POST"}},
	)
	handlers := map[string]http.Handler{
		"convert": okHandler("v1"),
		"legacy":  okHandler("legacy"),
	}
	router := NewRouter(cfg, handlers, zap.NewNop())

	for path, want := range map[string]string{"/api/v1/convert": "v1", "/convert": "legacy"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, want, w.Body.String(), path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), path)
	}
}

// TestRouter_MethodRestriction tests that method restrictions are enforced
func TestRouter_MethodRestriction(t *testing.T) {
	cfg := testConfig(config.RouteConfig{Path: "/convert", Handler: "convert", Version: "v1", Methods: []string{"POST"}})
	router := NewRouter(cfg, map[string]http.Handler{"convert": okHandler("ok")}, zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/convert", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Preflight(t *testing.T) {
	cfg := testConfig(config.RouteConfig{Path: "/convert", Handler: "convert", Version: "v1", Methods: []string{"POST", "OPTIONS"}})
	cfg.Server.Debug = false
	router := NewRouter(cfg, map[string]http.Handler{"convert": okHandler("ok")}, zap.NewNop())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/convert", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	router := NewRouter(testConfig(), nil, zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "not_found", body["type"])
}

func TestRouter_UnknownHandlerSkipped(t *testing.T) {
	cfg := testConfig(config.RouteConfig{Path: "/convert", Handler: "convert"})
	router := NewRouter(cfg, map[string]http.Handler{}, zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PanicRecovered(t *testing.T) {
	cfg := testConfig(config.RouteConfig{Path: "/convert", Handler: "convert"})
	handlers := map[string]http.Handler{
		"convert": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	}
	router := NewRouter(cfg, handlers, zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestRouter_HealthCheck tests the health check functionality
func TestRouter_HealthCheck(t *testing.T) {
	failing := false
	cfg := testConfig(config.RouteConfig{Path: "/health", Handler: "health", Methods: []string{"GET"}})
	router := NewRouter(cfg, nil, zap.NewNop(),
		WithHealthCheck("completion", func() error {
			if failing {
				return fmt.Errorf("circuit open")
			}
			return nil
		}),
	)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["completion"])

	failing = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "circuit open", resp.Checks["completion"])
}

func TestRouter_Metrics(t *testing.T) {
	m := metrics.NewMetrics()
	cfg := testConfig(
		config.RouteConfig{Path: "/health", Handler: "health", Methods: []string{"GET"}},
		config.RouteConfig{Path: "/metrics", Handler: "metrics", Methods: []string{"GET"}},
	)
	router := NewRouter(cfg, nil, zap.NewNop(), WithMetrics(m))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	for _, metric := range []string{
		"codeshift_http_requests_total",
		"codeshift_conversions_total",
	} {
		assert.True(t, strings.Contains(body, metric), "response should contain metric '%s'", metric)
	}
}

func TestRouter_MetricsRouteWithoutMetrics(t *testing.T) {
	cfg := testConfig(config.RouteConfig{Path: "/metrics", Handler: "metrics", Methods: []string{"GET"}})
	router := NewRouter(cfg, nil, zap.NewNop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
