// Package apperr defines the closed set of failure kinds returned by the
// application layer. Store errors never cross this boundary unwrapped.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application failure.
type Kind uint8

const (
	// Conflict means the write would duplicate an existing record.
	Conflict Kind = iota + 1
	// NotFound means the addressed record does not exist.
	NotFound
	// StoreUnavailable means the backing store failed.
	StoreUnavailable
	// ValidationFailure means the input was rejected before reaching the store.
	ValidationFailure
)

// String returns the kind name used in logs and API bodies.
func (k Kind) String() string {
	switch k {
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case StoreUnavailable:
		return "store_unavailable"
	case ValidationFailure:
		return "validation_failure"
	default:
		return "unknown"
	}
}

// Error is a tagged application failure. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, &Error{Kind: NotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// New builds an *Error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap builds an *Error around a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation wraps a domain validation error, using its text as the user message.
func Validation(err error) *Error {
	return &Error{Kind: ValidationFailure, Message: err.Error(), Err: err}
}

// Unavailable wraps a store failure with a generic user message.
func Unavailable(err error) *Error {
	return &Error{Kind: StoreUnavailable, Message: "servizio temporaneamente non disponibile, riprova più tardi", Err: err}
}

// KindOf returns the kind of err, or 0 when err is nil or not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return "errore interno"
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
