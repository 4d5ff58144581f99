package identity

import (
	"errors"
	"fmt"
)

// Error codes used across the SDK. Callers can switch on these instead of
// matching error strings.
const (
	// ErrCodeConfig indicates a missing API key or a malformed security
	// descriptor at construction time. Fatal; the process must not serve.
	ErrCodeConfig = "CONFIG_INVALID"

	// ErrCodeDiscovery indicates capability discovery was unreachable or
	// returned a non-success status.
	ErrCodeDiscovery = "DISCOVERY_FAILED"

	// ErrCodeUnsupportedKind indicates a service kind no claims can be
	// built for.
	ErrCodeUnsupportedKind = "KIND_UNSUPPORTED"

	// ErrCodeAuthority indicates a failure from an authority RPC.
	ErrCodeAuthority = "AUTHORITY_ERROR"

	// ErrCodeAuthorityTimeout indicates an authority RPC exceeded its
	// configured deadline.
	ErrCodeAuthorityTimeout = "AUTHORITY_TIMEOUT"

	// ErrCodeNotFound indicates the authority does not know the requested
	// entity yet. Token exchange treats this as transient.
	ErrCodeNotFound = "NOT_FOUND"

	// ErrCodeUnauthorized indicates a missing or malformed bearer header.
	// Maps to HTTP 401.
	ErrCodeUnauthorized = "UNAUTHORIZED"

	// ErrCodeForbidden indicates the presented credential was rejected by
	// the authority. Maps to HTTP 403.
	ErrCodeForbidden = "FORBIDDEN"
)

// Error is a coded error carrying an optional underlying cause.
type Error struct {
	// Code is one of the ErrCode* constants.
	Code string

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on the error code, so sentinels compare against wrapped
// instances carrying extra context.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError creates an Error with the given code and formatted message.
func NewError(code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError creates an Error that wraps an underlying cause.
func WrapError(code string, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrConfig          = NewError(ErrCodeConfig, "invalid configuration")
	ErrDiscovery       = NewError(ErrCodeDiscovery, "capability discovery failed")
	ErrUnsupportedKind = NewError(ErrCodeUnsupportedKind, "unsupported service kind")
	ErrAuthority       = NewError(ErrCodeAuthority, "authority request failed")
	ErrTimeout         = NewError(ErrCodeAuthorityTimeout, "authority request timed out")
	ErrNotFound        = NewError(ErrCodeNotFound, "entity not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "missing or malformed credentials")
	ErrForbidden       = NewError(ErrCodeForbidden, "credentials rejected")
)

// ErrorCode extracts the code from err, or returns empty string when err is
// not an *Error.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
