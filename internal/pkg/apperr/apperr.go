// Package apperr classifies failures the way the admin UI reports them:
// load failures, write failures, local validation failures and partial writes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteRead    = errors.New("remote read failed")
	ErrRemoteWrite   = errors.New("remote write failed")
	ErrValidation    = errors.New("validation failed")
	ErrPartial       = errors.New("partial failure")
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
)

// Error carries a failure kind, the operation that produced it and a
// user-facing message. It unwraps to both the kind and the cause.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Read(op, message string, err error) error {
	return &Error{Kind: ErrRemoteRead, Op: op, Message: message, Err: err}
}

func Write(op, message string, err error) error {
	return &Error{Kind: ErrRemoteWrite, Op: op, Message: message, Err: err}
}

func Validation(op, message string) error {
	return &Error{Kind: ErrValidation, Op: op, Message: message}
}

func NotFound(op, message string) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: message}
}

// Duplicate is a validation failure raised by local uniqueness checks.
func Duplicate(op, message string) error {
	return &Error{Kind: ErrValidation, Op: op, Message: message, Err: ErrDuplicateName}
}

// Partial marks a write that left some steps applied. cause is the step failure.
func Partial(op, message string, cause error) error {
	return &Error{Kind: ErrPartial, Op: op, Message: message, Err: cause}
}

// Message returns the user-facing message of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
