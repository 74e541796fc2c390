package service

import (
	"errors"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
)

// Error carries a message that is safe to return to a client together with
// the sentinel it classifies as.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func invalid(msg string) error {
	return &Error{kind: ErrValidation, msg: msg}
}

func forbidden(msg string) error {
	return &Error{kind: ErrForbidden, msg: msg}
}
