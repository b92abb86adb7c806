// Package errors provides the structured error responses written by the
// codeshift HTTP boundary. Every failure leaves the server as a JSON body of
// the form
//
//	{"error": "File is empty", "type": "validation_error", "request_id": "..."}
//
// with the matching status code. The package also carries a zap-integrated
// panic handler and a package-level logger.
//
// Basic usage:
//
//	// Type-specific error with context
//	errors.ErrorWithType(w, "File is empty", errors.ValidationError, http.StatusBadRequest)
//
//	// Or build one with a constructor from types.go
//	errors.WriteError(w, errors.NewUploadTooLargeError(requestID, limit))
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// Nil is ignored.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType categorizes a failure for clients.
type ErrorType string

const (
	// ValidationError is a rejected upload or malformed request
	ValidationError ErrorType = "validation_error"

	// PayloadTooLargeError is an upload over the configured size limit
	PayloadTooLargeError ErrorType = "payload_too_large"

	// ConfigError is a server misconfiguration, e.g. a missing credential
	ConfigError ErrorType = "config_error"

	// ProviderError is a failure reported by the completion service
	ProviderError ErrorType = "provider_error"

	// EmptyResponseError is a completion that carried no content
	EmptyResponseError ErrorType = "empty_response"

	// UnavailableError is returned while the circuit breaker is open
	UnavailableError ErrorType = "service_unavailable"

	// InternalError represents unexpected internal server errors
	InternalError ErrorType = "internal_error"

	// NotFoundError represents resource not found errors
	NotFoundError ErrorType = "not_found"
)

// AppError is the error written to clients. The underlying cause is kept
// for logging and errors.Unwrap but never serialized.
type AppError struct {
	// Message is the human-readable description
	Message string `json:"error"`

	// Type categorizes the error for client handling
	Type ErrorType `json:"type"`

	// Code is the HTTP status code (not exposed in JSON)
	Code int `json:"-"`

	// RequestID links the error to a specific request
	RequestID string `json:"request_id,omitempty"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.err
}

// Is matches on Type only, so errors.Is(err, &AppError{Type: ValidationError})
// works regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError writes err as a JSON response with its status code.
func WriteError(w http.ResponseWriter, err *AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		DefaultLogger.Warn("failed to encode error response", zap.Error(encErr))
	}
}

// Error is a drop-in replacement for http.Error that writes an InternalError.
// The request ID is taken from the X-Request-ID response header when set.
func Error(w http.ResponseWriter, message string, code int) {
	ErrorWithType(w, message, InternalError, code)
}

// ErrorWithType is like Error but allows specifying the error type.
func ErrorWithType(w http.ResponseWriter, message string, errType ErrorType, code int) {
	WriteError(w, &AppError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}
