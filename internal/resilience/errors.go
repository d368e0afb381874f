package resilience

import (
	"errors"
	"net/http"
)

// StatusError wraps a server-side HTTP status that is safe to retry.
type StatusError struct {
	Err        error
	StatusCode int
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError wraps err with the HTTP status code that caused it.
func NewStatusError(err error, statusCode int) *StatusError {
	return &StatusError{Err: err, StatusCode: statusCode}
}

// IsRetryableStatus reports whether statusCode is a server-side failure that
// the geocoding transport retries on its own: 500, 502, 503 and 504.
// 403 and 429 are deliberately absent; throttling is handled by the batch.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if err (or any error in its chain) is a
// StatusError carrying a retryable status code.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return IsRetryableStatus(se.StatusCode)
	}
	return false
}

// StatusCode extracts the HTTP status from a StatusError chain, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
