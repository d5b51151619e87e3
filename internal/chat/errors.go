package chat

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the stable error category surfaced to clients.
type Kind string

const (
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
	KindNotFound     Kind = "NotFound"
	KindValidation   Kind = "ValidationError"
	KindInternal     Kind = "Internal"
)

// Error carries a Kind and a client-safe message. Err holds the wrapped
// cause for Internal errors and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

func unauthorized() error {
	return &Error{Kind: KindUnauthorized, Message: "identity required"}
}

func forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// internal wraps a store or transport failure with the failing operation.
func internal(err error, op string) error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: errors.Wrap(err, op)}
}
