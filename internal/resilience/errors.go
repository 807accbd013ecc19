// Package resilience provides retry with backoff, transient-error
// classification, and the pipeline's error taxonomy.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ErrNotFound signals a strategy found nothing. Expected outcome, never
// logged as an error; the caller moves to the next strategy.
var ErrNotFound = errors.New("not found")

// UnreachableError marks a network or timeout failure talking to an external
// source. The next strategy in the cascade serves as the retry.
type UnreachableError struct {
	Source string
	Err    error
}

func (e *UnreachableError) Error() string {
	return "unreachable: " + e.Source + ": " + e.Err.Error()
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// NewUnreachable wraps err as an UnreachableError for the given source.
func NewUnreachable(source string, err error) *UnreachableError {
	return &UnreachableError{Source: source, Err: err}
}

// IsUnreachable reports whether err is an UnreachableError.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// LowConfidenceError marks a candidate that exists but fails the quality
// gate. It triggers fallback, not failure.
type LowConfidenceError struct {
	Score  float64
	Reason string
}

func (e *LowConfidenceError) Error() string {
	return "low confidence: " + e.Reason
}

// IsLowConfidence reports whether err is a LowConfidenceError.
func IsLowConfidence(err error) bool {
	var lce *LowConfidenceError
	return errors.As(err, &lce)
}

// TransientError wraps an error that is safe to retry (429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError or an UnreachableError, or if it matches common transient
// network failure patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if IsUnreachable(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status indicates a
// server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
