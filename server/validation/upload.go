// Package validation checks source uploads before they reach the converter.
// Every rejection is an *UploadError carrying the status code and the fixed
// client-facing message.
package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Fixed client-facing messages.
const (
	MsgFileEmpty            = "File is empty"
	MsgInvalidUTF8          = "File must be valid UTF-8 text"
	MsgFileTooLarge         = "File too large"
	MsgUnsupportedExtension = "Unsupported file extension"
	MsgTooManyTokens        = "File exceeds the model context window"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart envelope (boundaries, part headers, other fields).
const multipartOverhead = 64 << 10

// UploadError is a rejected upload.
type UploadError struct {
	Status  int
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// TooLarge reports whether the upload was rejected for its size.
func (e *UploadError) TooLarge() bool {
	return e.Status == http.StatusRequestEntityTooLarge
}

// Rules configures upload checks.
type Rules struct {
	// Field is the multipart field carrying the file
	Field string `validate:"required"`

	// MaxSize is the largest accepted file in bytes
	MaxSize int64 `validate:"gt=0"`

	// AllowedExtensions, when not empty, restricts file names; matching
	// ignores case
	AllowedExtensions []string `validate:"dive,startswith=."`

	// MaxTokens rejects files with more tokens; 0 disables the check
	MaxTokens int `validate:"gte=0"`
}

// Upload is an accepted source file.
type Upload struct {
	Filename string
	Source   string
}

// Validator reads and checks uploads according to its Rules.
type Validator struct {
	rules   Rules
	counter *TokenCounter
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewValidator checks rules and returns a Validator. counter is required
// when rules.MaxTokens is set.
func NewValidator(rules Rules, counter *TokenCounter) (*Validator, error) {
	if err := validate.Struct(rules); err != nil {
		return nil, fmt.Errorf("invalid upload rules: %w", err)
	}
	if rules.MaxTokens > 0 && counter == nil {
		return nil, fmt.Errorf("token budget set without a token counter")
	}
	return &Validator{rules: rules, counter: counter}, nil
}

// Rules returns the rules v enforces.
func (v *Validator) Rules() Rules {
	return v.rules
}

// RequiredMessage is the message returned when the upload field is missing.
func (v *Validator) RequiredMessage() string {
	return v.rules.Field + " is required"
}

// ReadUpload extracts the file from a multipart request and checks it, in
// order: presence, extension, size, UTF-8 encoding, blankness, token budget.
func (v *Validator) ReadUpload(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, v.rules.MaxSize+multipartOverhead)

	file, header, err := r.FormFile(v.rules.Field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, v.tooLarge(err)
		}
		return nil, &UploadError{Status: http.StatusBadRequest, Message: v.RequiredMessage(), Err: err}
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, &UploadError{Status: http.StatusBadRequest, Message: v.RequiredMessage()}
	}

	if err := v.checkExtension(header.Filename); err != nil {
		return nil, err
	}

	if header.Size > v.rules.MaxSize {
		return nil, v.tooLarge(nil)
	}
	data, err := io.ReadAll(io.LimitReader(file, v.rules.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > v.rules.MaxSize {
		return nil, v.tooLarge(nil)
	}

	source, err := v.CheckSource(data)
	if err != nil {
		return nil, err
	}

	return &Upload{Filename: header.Filename, Source: source}, nil
}

// CheckSource validates the content of a file and returns it as text.
func (v *Validator) CheckSource(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &UploadError{Status: http.StatusBadRequest, Message: MsgInvalidUTF8}
	}

	source := string(data)
	if strings.TrimSpace(source) == "" {
		return "", &UploadError{Status: http.StatusBadRequest, Message: MsgFileEmpty}
	}

	if v.rules.MaxTokens > 0 {
		if err := v.counter.ValidateTokens(v.rules.MaxTokens, source); err != nil {
			return "", &UploadError{
				Status:  http.StatusBadRequest,
				Message: MsgTooManyTokens,
				Details: map[string]interface{}{
					"max_tokens": v.rules.MaxTokens,
					"tokens":     v.counter.Count(source),
				},
				Err: err,
			}
		}
	}

	return source, nil
}

func (v *Validator) checkExtension(filename string) error {
	if len(v.rules.AllowedExtensions) == 0 {
		return nil
	}
	ext := filepath.Ext(filename)
	for _, allowed := range v.rules.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return nil
		}
	}
	return &UploadError{
		Status:  http.StatusBadRequest,
		Message: MsgUnsupportedExtension,
		Details: map[string]interface{}{
			"extension": ext,
			"allowed":   v.rules.AllowedExtensions,
		},
	}
}

func (v *Validator) tooLarge(err error) *UploadError {
	return &UploadError{
		Status:  http.StatusRequestEntityTooLarge,
		Message: MsgFileTooLarge,
		Details: map[string]interface{}{"max_bytes": v.rules.MaxSize},
		Err:     err,
	}
}
