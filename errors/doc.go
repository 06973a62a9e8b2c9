// Package errors provides the structured error type used by asyncseq.
//
// Failures raised by producers and callbacks are never wrapped by the
// sequence operators; AppError is reserved for conditions the library itself
// detects (misuse of a sequence, unsupported sources, invalid configuration).
// Each condition has an exported sentinel that works with errors.Is.
package errors
