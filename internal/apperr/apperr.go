// Package apperr defines the error kinds surfaced by core operations.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to decide how to recover.
type Kind string

const (
	KindInternal      Kind = "internal"
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindNotFound      Kind = "not_found"
	KindTransport     Kind = "transport"
)

// Error is a classified error. Sentinels built with the constructors below
// compare by identity, so errors.Is works on them after wrapping.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(msg string) *Error    { return New(KindValidation, msg) }
func Authorization(msg string) *Error { return New(KindAuthorization, msg) }
func State(msg string) *Error         { return New(KindState, msg) }
func NotFound(msg string) *Error      { return New(KindNotFound, msg) }
func Transport(msg string) *Error     { return New(KindTransport, msg) }

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether an operation that failed with err may be
// retried without risking a duplicate side effect. Only reads should ask.
func Retryable(err error) bool {
	return Is(err, KindTransport)
}
