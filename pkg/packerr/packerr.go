// Package packerr defines the typed failures a pack run can end with.
package packerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a pack failure.
type Kind string

const (
	KindUnknown     Kind = "UNKNOWN"
	KindConfig      Kind = "CONFIG"      // bad or missing input, detected before any I/O
	KindAcquisition Kind = "ACQUISITION" // source could not be resolved or fetched
	KindWalk        Kind = "WALK"        // a single entry could not be read; never fatal
	KindEmit        Kind = "EMIT"        // destination could not be written
)

// Error is a categorized error carrying an optional path and wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithPath returns a copy of e that records path. A nil e stays nil.
func (e *Error) WithPath(path string) *Error {
	if e == nil {
		return nil
	}
	c := *e
	c.Path = path
	return &c
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err. The result is never nil, so it is safe to return as an
// error; a nil err gives an Error without a cause.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: err}
}

// Wrapf wraps err with a formatted message. Like Wrap, it never returns nil.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Has reports whether err's chain contains an *Error of the given kind.
func Has(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
