// Package domainerrors defines the coded error type shared by all modules.
//
// Services and entities return *DomainError so callers can branch on the
// failure kind without string matching. Stores return sentinel errors
// (pkg/platform/sentinel) for infrastructure facts; services translate those
// into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure. The set is closed; handlers map codes to
// HTTP statuses in exactly one place (ToHTTPStatus).
type Code string

const (
	// CodeNotFound: a referenced aggregate or collaborator resource does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: the actor lacks the required role (assignee, owner, member).
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidState: the requested transition is illegal for the current status.
	CodeInvalidState Code = "invalid_state"
	// CodeInvalidInput: malformed input at a trust boundary (bad id, bad enum value).
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation: a business rule was violated (limits exceeded,
	// missing mandatory tags, mismatched project context, self-merge).
	CodeInvariantViolation Code = "invariant_violation"
	// CodeConflict: the operation collides with existing state (duplicate assignment).
	CodeConflict Code = "conflict"
	// CodeInternal: unexpected failure; the caller surfaces a safe message.
	CodeInternal Code = "internal"
)

// DomainError carries a failure kind, a human-readable message, and optional
// structured details (for example the names of missing mandatory tags) so the
// caller can render feedback without parsing the message.
type DomainError struct {
	Code    Code
	Message string
	Details []string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// New builds a coded error.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// WithDetails returns a copy of the error carrying structured details.
func (e *DomainError) WithDetails(details ...string) *DomainError {
	clone := *e
	clone.Details = append([]string{}, details...)
	return &clone
}

// HasCode reports whether err is (or wraps) a DomainError with the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unrecognized failures so they propagate as a generic error.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DetailsOf extracts structured details, if any.
func DetailsOf(err error) []string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// ToHTTPStatus maps a code to its HTTP status. Transport-layer helper; kept
// here so the mapping cannot diverge across handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeInvalidState:
		return http.StatusConflict
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidInput, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
