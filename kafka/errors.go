package kafka

import (
	"strings"

	"github.com/kbukum/asyncseq/errors"
)

var (
	connectionPatterns = []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"broker not available",
		"leader not available",
		"connection closed",
		"dial tcp",
		"network exception",
	}
	retryablePatterns = []string{
		"temporary",
		"request timed out",
		"not enough replicas",
		"offset out of range",
	}
	nonRetryablePatterns = []string{
		"message too large",
		"invalid topic",
		"invalid partition",
		"unknown topic",
		"authorization failed",
	}
)

func matches(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsConnectionError checks if a Kafka error is a connection-level error.
func IsConnectionError(err error) bool { return matches(err, connectionPatterns) }

// IsRetryableError determines if a Kafka error is transient.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || matches(err, retryablePatterns)
}

// IsNonRetryableError checks if the error will not go away on retry.
func IsNonRetryableError(err error) bool { return matches(err, nonRetryablePatterns) }

// FromKafka converts a Kafka error into an AppError. Unrecognized errors,
// context errors included, are returned unchanged.
func FromKafka(err error, topic string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	switch {
	case IsNonRetryableError(err):
		return errors.InvalidInput("topic", "kafka rejected the request").WithCause(err).WithDetail("topic", topic)
	case IsRetryableError(err):
		return errors.SourceUnavailable("kafka", err).WithDetail("topic", topic)
	default:
		return err
	}
}
