package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified library error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code when the error reaches an HTTP edge.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Sentinels for errors.Is comparisons. They are matched by code, so the
// instances returned by the constructors below compare equal to them.
var (
	ErrMoved             = New(ErrCodeSequenceMoved, "sequence is owned by a downstream operator", http.StatusInternalServerError)
	ErrConcurrentPull    = New(ErrCodeConcurrentPull, "sequence already has an outstanding pull", http.StatusConflict)
	ErrClosed            = New(ErrCodeSequenceClosed, "sequence is closed", http.StatusGone)
	ErrUnsupportedSource = New(ErrCodeUnsupportedSource, "value exposes no iteration capability", http.StatusBadRequest)
	ErrInvalidConfig     = New(ErrCodeInvalidConfig, "invalid configuration", http.StatusInternalServerError)
)

// --- Constructors ---

// Moved creates an error for a pull on a sequence that was handed to an operator.
func Moved(id string) *AppError {
	return &AppError{
		Code: ErrCodeSequenceMoved, Message: "sequence is owned by a downstream operator",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"sequence_id": id},
	}
}

// ConcurrentPull creates an error for overlapping pulls on one sequence.
func ConcurrentPull(id string) *AppError {
	return &AppError{
		Code: ErrCodeConcurrentPull, Message: "sequence already has an outstanding pull",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"sequence_id": id},
	}
}

// Closed creates an error for a pull on a closed sequence.
func Closed(id string) *AppError {
	return &AppError{
		Code: ErrCodeSequenceClosed, Message: "sequence is closed",
		HTTPStatus: http.StatusGone,
		Details:    map[string]any{"sequence_id": id},
	}
}

// UnsupportedSource creates an error for a value with no known iteration capability.
func UnsupportedSource(kind string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedSource, Message: fmt.Sprintf("unsupported source type %s", kind),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"type": kind},
	}
}

// SourceUnavailable creates a retryable error for an external source that could not be reached.
func SourceUnavailable(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceUnavailable, Message: fmt.Sprintf("%s is unavailable", source),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// InvalidConfig creates an error for configuration that failed validation.
func InvalidConfig(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: reason,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// InvalidInput creates an error for an invalid argument.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
