package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.Handler
		expectedCode int
		expectLog    bool
	}{
		{
			name: "normal handler",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
			expectedCode: http.StatusOK,
		},
		{
			name: "panicking handler",
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("test panic")
			}),
			expectedCode: http.StatusInternalServerError,
			expectLog:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rr := httptest.NewRecorder()
			rr.Header().Set("X-Request-ID", "test-request-id")

			ErrorHandler(zap.New(core))(tt.handler).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectLog {
				assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
				assert.Contains(t, rr.Body.String(), `"request_id":"test-request-id"`)
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestLogError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogError(logger, NewValidationError("req", "File is empty", nil), "req")
	LogError(logger, NewInternalError("req", nil), "req")
	LogError(logger, assert.AnError, "req")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
		assert.Equal(t, "unexpected error", entries[2].Message)
	}
}
