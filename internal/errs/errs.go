// Package errs defines the error taxonomy shared by the storage, service
// and API layers. Handlers map these types onto HTTP status codes; raw
// backend detail stays in the error chain for logging and is never echoed
// to clients.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationError reports a missing or invalid field in a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a field-level validation error.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthKind distinguishes the three credential failure modes.
type AuthKind int

const (
	// AuthUnconfigured means the server has no secret set. Fails closed.
	AuthUnconfigured AuthKind = iota
	// AuthMissing means the caller supplied no credential.
	AuthMissing
	// AuthMismatch means the supplied credential did not match.
	AuthMismatch
)

// AuthError reports a credential failure on a guarded route.
type AuthError struct {
	Kind AuthKind
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case AuthUnconfigured:
		return "server configuration error: API key not set"
	case AuthMissing:
		return "API key required"
	default:
		return "invalid API key"
	}
}

// NotFoundError reports a delete or lookup that matched no rows,
// including a guard mismatch.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// StorageError wraps a transport or backend failure. Timeout marks
// deadline-exceeded distinctly so callers can tell a slow backend from a
// broken one.
type StorageError struct {
	Backend string
	Op      string
	Timeout bool
	Err     error
}

func (e *StorageError) Error() string {
	kind := "error"
	if e.Timeout {
		kind = "timeout"
	}
	return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AdapterError wraps a failure in the text-to-event adapter.
type AdapterError struct {
	Reason string
	Err    error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm adapter: %s: %v", e.Reason, e.Err)
	}
	return "llm adapter: " + e.Reason
}

func (e *AdapterError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsStorageTimeout reports whether err is a timeout-flavored StorageError.
func IsStorageTimeout(err error) bool {
	var s *StorageError
	return errors.As(err, &s) && s.Timeout
}
