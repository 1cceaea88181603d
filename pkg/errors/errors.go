// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to wrap errors without resorting
// to fmt.Errorf("%w", err).
//
// Sentinel errors declared with New are never mutated: Wrap returns
// a new error which still matches its sentinel with Is.
package errors

import (
	stderr "errors"
	"fmt"

	"go.uber.org/zap"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
type Error struct {
	msg    string
	err    error
	origin *Error
}

// Error message, followed by the wrapped error if any
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error. The receiver is left unchanged.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, origin: e.root()}
}

// WrapMessage wraps a formatted message as the nested error
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// WrapWithLog wraps a nested error and logs it at the error level
func (e *Error) WrapWithLog(logger *zap.Logger, err error, fields ...zap.Field) *Error {
	wrapped := e.Wrap(err)
	if logger != nil {
		logger.Error(e.msg, append(fields, zap.Error(err))...)
	}
	return wrapped
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	if e == target {
		return true
	}
	if e.origin != nil && e.origin == target {
		return true
	}
	return e.err != nil && e.err == target
}

func (e *Error) root() *Error {
	if e.origin != nil {
		return e.origin
	}
	return e
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.As)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
