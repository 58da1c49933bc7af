// Package apperr is the error taxonomy shared by the domain services and
// mapped to status codes by the REST and gRPC layers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transport layers.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Validation
	Dependency
	Conflict
	Unauthorized
	Forbidden
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case Validation:
		return "VALIDATION"
	case Dependency:
		return "DEPENDENCY_FAILURE"
	case Conflict:
		return "CONFLICT"
	case Unauthorized:
		return "UNAUTHORIZED"
	case Forbidden:
		return "FORBIDDEN"
	}
	return "INTERNAL"
}

// CodeValidation is the wire code of generic input errors.
const CodeValidation = "VALIDATION_ERROR"

// Error is a classified failure carrying a stable wire code.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

// New returns an Error without a cause.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Wrap returns an Error whose message is the cause's message.
func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Msg: err.Error(), Err: err}
}

// Validationf builds a VALIDATION_ERROR with a user-facing message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: Validation, Code: CodeValidation, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so sentinels compare equal to wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// KindOf reports the Kind of err, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// CodeOf reports the wire code of err, or "" for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf reports the user-facing message of err, or "" for
// unclassified errors, which must not leak to clients.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
