package errors

import (
	"net/http"
)

// NewError creates a new AppError with full control over its fields. Prefer
// the specialized constructors below.
func NewError(errType ErrorType, message string, code int, requestID string, details map[string]interface{}, err error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Details:   details,
		err:       err,
	}
}

// NewValidationError creates a 400 for a rejected upload, such as:
//   - missing upload field
//   - disallowed file extension
//   - empty or non UTF-8 content
func NewValidationError(requestID, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:      ValidationError,
		Message:   message,
		Code:      http.StatusBadRequest,
		RequestID: requestID,
		Details:   details,
	}
}

// NewUploadTooLargeError creates a 413 naming the limit in bytes.
func NewUploadTooLargeError(requestID string, limit int64) *AppError {
	return &AppError{
		Type:      PayloadTooLargeError,
		Message:   "File too large",
		Code:      http.StatusRequestEntityTooLarge,
		RequestID: requestID,
		Details: map[string]interface{}{
			"max_bytes": limit,
		},
	}
}

// NewConfigError creates a 500 for server-side misconfiguration.
func NewConfigError(requestID, message string, err error) *AppError {
	return &AppError{
		Type:      ConfigError,
		Message:   message,
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewProviderError creates a 500 for a failed completion call. The message
// is the provider's own error text.
func NewProviderError(requestID string, err error) *AppError {
	return &AppError{
		Type:      ProviderError,
		Message:   err.Error(),
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewEmptyResponseError creates a 500 for a completion without content.
func NewEmptyResponseError(requestID string, err error) *AppError {
	return &AppError{
		Type:      EmptyResponseError,
		Message:   err.Error(),
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}

// NewUnavailableError creates a 503 while the completion service is being
// shed by the circuit breaker.
func NewUnavailableError(requestID string, err error) *AppError {
	return &AppError{
		Type:      UnavailableError,
		Message:   "Completion service temporarily unavailable",
		Code:      http.StatusServiceUnavailable,
		RequestID: requestID,
		err:       err,
	}
}

// NewInternalError creates a 500 for anything else, including panics.
func NewInternalError(requestID string, err error) *AppError {
	return &AppError{
		Type:      InternalError,
		Message:   "An internal error occurred",
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
		err:       err,
	}
}
