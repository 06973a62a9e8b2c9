package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Sequence misuse
const (
	// ErrCodeSequenceMoved indicates a sequence was pulled after an operator took ownership of it.
	ErrCodeSequenceMoved ErrorCode = "SEQUENCE_MOVED"
	// ErrCodeConcurrentPull indicates a second pull was issued while one was outstanding.
	ErrCodeConcurrentPull ErrorCode = "CONCURRENT_PULL"
	// ErrCodeSequenceClosed indicates a pull on a sequence whose producer was released.
	ErrCodeSequenceClosed ErrorCode = "SEQUENCE_CLOSED"
)

// Source errors
const (
	// ErrCodeUnsupportedSource indicates a value exposes no known iteration capability.
	ErrCodeUnsupportedSource ErrorCode = "UNSUPPORTED_SOURCE"
	// ErrCodeSourceUnavailable indicates an external source could not be reached.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInvalidInput indicates a caller supplied an invalid argument.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ErrCodeInternal indicates an unexpected internal failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSourceUnavailable: true,
	ErrCodeConcurrentPull:    false,
	ErrCodeInternal:          false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
