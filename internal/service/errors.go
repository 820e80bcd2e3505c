package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "unexpected"
	}
}

// Error is the typed failure returned by every service operation.  Msg
// is safe to show to clients; Err holds the underlying cause, if any.
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

func notFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }
func invalid(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }
func unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Msg: msg, Err: err}
}

// KindOf reports the Kind of err.  Errors that are not *Error are
// unexpected.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}
