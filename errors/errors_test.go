package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "basic error without wrapped error",
			err: &AppError{
				Type:    ValidationError,
				Message: "File is empty",
			},
			want: "validation_error: File is empty",
		},
		{
			name: "error with wrapped error",
			err: &AppError{
				Type:    ProviderError,
				Message: "completion failed",
				err:     errors.New("connection reset"),
			},
			want: "provider_error: completion failed: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Is(t *testing.T) {
	err1 := NewValidationError("a", "ada_file is required", nil)
	err2 := NewValidationError("b", "File is empty", nil)
	err3 := NewInternalError("c", nil)

	if !errors.Is(err1, err2) {
		t.Error("expected errors of the same type to match")
	}
	if errors.Is(err1, err3) {
		t.Error("expected errors of different types not to match")
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := NewProviderError("req", inner)

	if !errors.Is(err, inner) {
		t.Errorf("Unwrap() chain does not contain %v", inner)
	}
	if err.Message != "inner error" {
		t.Errorf("provider error should carry the provider message, got %q", err.Message)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, NewUploadTooLargeError("req-1", 1024))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("unexpected status: got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type: %s", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["error"] != "File too large" {
		t.Errorf("unexpected error field: %v", body["error"])
	}
	if body["type"] != string(PayloadTooLargeError) {
		t.Errorf("unexpected type field: %v", body["type"])
	}
	if body["request_id"] != "req-1" {
		t.Errorf("unexpected request_id: %v", body["request_id"])
	}
}

func TestErrorWithType(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set("X-Request-ID", "from-header")

	ErrorWithType(rr, "File must be valid UTF-8 text", ValidationError, http.StatusBadRequest)

	var body AppError
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rr.Code != http.StatusBadRequest || body.Type != ValidationError {
		t.Errorf("unexpected response: %d %+v", rr.Code, body)
	}
	if body.RequestID != "from-header" {
		t.Errorf("request ID not taken from header: %q", body.RequestID)
	}
}

func TestConstructorStatusCodes(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  *AppError
		code int
	}{
		{NewValidationError("", "bad", nil), http.StatusBadRequest},
		{NewUploadTooLargeError("", 1), http.StatusRequestEntityTooLarge},
		{NewConfigError("", "no key", cause), http.StatusInternalServerError},
		{NewProviderError("", cause), http.StatusInternalServerError},
		{NewEmptyResponseError("", cause), http.StatusInternalServerError},
		{NewUnavailableError("", cause), http.StatusServiceUnavailable},
		{NewInternalError("", cause), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("%s: got code %d, want %d", tt.err.Type, tt.err.Code, tt.code)
		}
	}
}
