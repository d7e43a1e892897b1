package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry (429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ProviderUnavailableError records a metrics call that failed after retries.
// It degrades confidence for the affected entity and is never fatal for the
// run as a whole.
type ProviderUnavailableError struct {
	Provider  string
	Operation string
	Entity    string
	Err       error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable for %s(%s): %v", e.Provider, e.Operation, e.Entity, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// InsufficientContextError is raised before any collection when greenfield
// mode is invoked without the minimum seed keywords or target identity. Fatal.
type InsufficientContextError struct {
	Reason string
}

func (e *InsufficientContextError) Error() string {
	return "insufficient context: " + e.Reason
}

// SetImbalanceError is a set-level validation error from competitor
// classification. It blocks roadmap generation until the set is curated.
type SetImbalanceError struct {
	Problems []string
}

func (e *SetImbalanceError) Error() string {
	return "competitor set imbalance: " + strings.Join(e.Problems, "; ")
}

// IsSetImbalance reports whether err wraps a SetImbalanceError.
func IsSetImbalance(err error) bool {
	var sie *SetImbalanceError
	return errors.As(err, &sie)
}

// IsInsufficientContext reports whether err wraps an InsufficientContextError.
func IsInsufficientContext(err error) bool {
	var ice *InsufficientContextError
	return errors.As(err, &ice)
}

// IsProviderUnavailable reports whether err wraps a ProviderUnavailableError.
func IsProviderUnavailable(err error) bool {
	var pue *ProviderUnavailableError
	return errors.As(err, &pue)
}

// IsTransient reports whether the error chain contains a TransientError or
// matches common transient network failure patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
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

	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"rate limit",
		"too many requests",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
