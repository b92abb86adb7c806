package errors

import (
	"errors"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorHandler recovers panics in next, logs them with their stack and
// answers with an InternalError.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					requestID := w.Header().Get("X-Request-ID")
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stacktrace", debug.Stack()),
						zap.String("request_id", requestID),
					)
					WriteError(w, NewInternalError(requestID, nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// LogError logs an error with its context. Client errors are logged at
// warn level, everything else at error level.
func LogError(logger *zap.Logger, err error, requestID string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		fields := []zap.Field{
			zap.String("error_type", string(appErr.Type)),
			zap.String("message", appErr.Message),
			zap.Int("code", appErr.Code),
			zap.String("request_id", requestID),
		}
		if appErr.Details != nil {
			fields = append(fields, zap.Any("details", appErr.Details))
		}
		if appErr.err != nil {
			fields = append(fields, zap.NamedError("cause", appErr.err))
		}
		if appErr.Code < http.StatusInternalServerError {
			logger.Warn("request error", fields...)
		} else {
			logger.Error("request error", fields...)
		}
		return
	}

	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}
