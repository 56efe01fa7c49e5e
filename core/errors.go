package core

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced to callers. Components wrap these sentinels with
// fmt.Errorf("%w: ...") so callers can classify with errors.Is without
// knowing provider-specific error taxonomies.
var (
	// ErrInvalidInput marks requests rejected before any backend call
	// (empty query, malformed request shape, out-of-range arguments).
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable marks failures of the search provider or the
	// model backend. The original cause is carried in the wrap chain.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMalformedOutput marks final exchange output that does not parse
	// as JSON or does not satisfy the response schema even after recovery.
	ErrMalformedOutput = errors.New("malformed output")
)

// InvalidInputf wraps ErrInvalidInput with a formatted detail message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// BackendUnavailable wraps a provider or transport failure. The cause is
// preserved in the chain so errors.Is/As keep working on it.
func BackendUnavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, cause)
}

// MalformedOutputf wraps ErrMalformedOutput with a formatted detail message.
func MalformedOutputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedOutput, fmt.Sprintf(format, args...))
}

// ErrorType maps a failure to the wire-level error_type identifier used by
// the boundary service. Unknown failures map to "processing_error".
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrBackendUnavailable):
		return "backend_error"
	case errors.Is(err, ErrMalformedOutput):
		return "malformed_output"
	default:
		return "processing_error"
	}
}
