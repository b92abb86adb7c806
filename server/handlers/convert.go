// Package handlers provides the HTTP handlers of the codeshift server.
//
// ConvertHandler accepts a multipart upload, runs it through a fresh
// conversion.Converter and answers with the reply split into its logic,
// unit test and converted code sections. Every failure is written with the
// errors package so clients always receive the same JSON error shape.
package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/teilomillet/codeshift/conversation"
	"github.com/teilomillet/codeshift/conversion"
	"github.com/teilomillet/codeshift/errors"
	"github.com/teilomillet/codeshift/server/circuitbreaker"
	"github.com/teilomillet/codeshift/server/metrics"
	"github.com/teilomillet/codeshift/server/middleware"
	"github.com/teilomillet/codeshift/server/validation"
)

// ConverterFactory returns a Converter with a fresh conversation.
type ConverterFactory func() (*conversion.Converter, error)

// ConvertHandler serves source code conversion requests.
type ConvertHandler struct {
	validator    *validation.Validator
	newConverter ConverterFactory
	metrics      *metrics.Metrics
	logger       *zap.Logger
	group        singleflight.Group
}

// NewConvertHandler creates a ConvertHandler. m may be nil.
func NewConvertHandler(v *validation.Validator, factory ConverterFactory, m *metrics.Metrics, logger *zap.Logger) *ConvertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConvertHandler{
		validator:    v,
		newConverter: factory,
		metrics:      m,
		logger:       logger,
	}
}

type conversionResult struct {
	raw        string
	decomposed conversion.Decomposed
}

// ServeHTTP implements http.Handler.
func (h *ConvertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(
		zap.String("request_id", requestID),
		zap.String("path", r.URL.Path),
	)

	upload, err := h.validator.ReadUpload(w, r)
	if err != nil {
		h.rejectUpload(w, logger, requestID, err)
		return
	}

	if h.metrics != nil {
		h.metrics.UploadBytes.Observe(float64(len(upload.Source)))
	}
	logger.Info("converting upload",
		zap.String("filename", upload.Filename),
		zap.Int("size", len(upload.Source)),
	)

	start := time.Now()
	result, shared, err := h.convert(r.Context(), upload.Source)
	if shared && h.metrics != nil {
		h.metrics.DeduplicatedRequests.Inc()
	}
	if err != nil {
		h.fail(w, logger, requestID, err)
		return
	}

	h.outcome("success")
	logger.Info("conversion completed",
		zap.String("filename", upload.Filename),
		zap.Int("reply_length", len(result.raw)),
		zap.Bool("deduplicated", shared),
		zap.Duration("duration", time.Since(start)),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result.decomposed); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// convert runs one conversion, letting identical concurrent uploads wait
// for the first one instead of starting their own. The shared round trip is
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx is done. shared reports whether this caller received
// another request's result.
func (h *ConvertHandler) convert(ctx context.Context, source string) (conversionResult, bool, error) {
	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])

	detached := context.WithoutCancel(ctx)
	led := false
	ch := h.group.DoChan(key, func() (interface{}, error) {
		led = true

		converter, err := h.newConverter()
		if err != nil {
			return conversionResult{}, err
		}
		raw, err := converter.Convert(detached, source)
		if err != nil {
			return conversionResult{}, err
		}
		return conversionResult{raw: raw, decomposed: converter.Decompose(raw)}, nil
	})

	select {
	case <-ctx.Done():
		return conversionResult{}, false, ctx.Err()
	case res := <-ch:
		return res.Val.(conversionResult), res.Shared && !led, res.Err
	}
}

func (h *ConvertHandler) rejectUpload(w http.ResponseWriter, logger *zap.Logger, requestID string, err error) {
	var uploadErr *validation.UploadError
	if !stderrors.As(err, &uploadErr) {
		h.fail(w, logger, requestID, err)
		return
	}
	h.outcome("rejected")

	var appErr *errors.AppError
	if uploadErr.TooLarge() {
		appErr = errors.NewUploadTooLargeError(requestID, h.validator.Rules().MaxSize)
	} else {
		appErr = errors.NewValidationError(requestID, uploadErr.Message, uploadErr.Details)
	}
	errors.LogError(logger, appErr, requestID)
	errors.WriteError(w, appErr)
}

// fail maps a conversion error to its response.
func (h *ConvertHandler) fail(w http.ResponseWriter, logger *zap.Logger, requestID string, err error) {
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, conversation.ErrMissingCredential):
		h.outcome("error")
		appErr = errors.NewConfigError(requestID, err.Error(), err)
	case stderrors.Is(err, conversation.ErrEmptyResponse):
		h.outcome("empty")
		appErr = errors.NewEmptyResponseError(requestID, err)
	case circuitbreaker.IsOpen(err):
		h.outcome("error")
		appErr = errors.NewUnavailableError(requestID, err)
	default:
		h.outcome("error")
		appErr = errors.NewProviderError(requestID, err)
	}

	errors.LogError(logger, appErr, requestID)
	errors.WriteError(w, appErr)
}

func (h *ConvertHandler) outcome(label string) {
	if h.metrics != nil {
		h.metrics.ConversionsTotal.WithLabelValues(label).Inc()
	}
}
