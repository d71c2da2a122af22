// Package apperr defines the error value used across the application for
// user facing failures.
package apperr

import (
	"errors"
	"fmt"
)

// Error is an application error with a printable message and an optional
// underlying cause.
type Error struct {
	Cause   error
	Message string

	// tmpl is the unformatted message of the sentinel this value was
	// derived from.
	tmpl string
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}

	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel e was derived from, so that
// errors.Is matches values produced by Fmt and Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.template() == e.template()
}

// Fmt returns a copy of e with its message formatted using args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		tmpl:    e.template(),
	}
}

// Wrap returns a copy of e that wraps err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		tmpl:    e.template(),
	}
}

func (e *Error) template() string {
	if e.tmpl != "" {
		return e.tmpl
	}

	return e.Message
}
