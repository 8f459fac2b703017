package llm

import (
	"context"
	"errors"
	"net"
)

// transientError marks a failure worth retrying: timeouts, rate limits and
// 5xx-class responses. Everything else (bad credentials, malformed
// requests) fails the provider immediately.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// markTransient wraps err so the retry loop will try again.
func markTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// isTransient reports whether err was classified as retryable. Network
// timeouts count as transient even when a provider forgot to mark them.
func isTransient(err error) bool {
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// transientStatus classifies an HTTP status code.
func transientStatus(code int) bool {
	return code == 429 || code >= 500
}
