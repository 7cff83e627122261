// Package apperror defines the error kinds the snippet services translate
// into HTTP statuses, and the handler adapter that performs the translation.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP translation.
type Kind int

const (
	// Internal is the fallback for errors with no explicit kind.
	Internal Kind = iota
	NotFound
	Invalid
	Conflict
)

// Error carries a kind, a caller-safe message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an error of the given kind.
func E(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a kind and caller-safe message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err, unwrapping as needed. Unclassified errors
// are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case Invalid:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message for err. Unclassified errors get a
// generic message; their detail belongs in the log, not the response.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Msg
	}
	return "internal server error"
}
