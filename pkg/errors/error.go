// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error is the builder-style error type used across the tree in place
// of bare fmt.Errorf, so every fatal path carries a numeric code callers
// can switch on (e.g. to distinguish a setup-incoherence restore
// failure from a scheduler-adapter failure).
type Error struct {
	code    int
	message string
	cause   error
}

func NewError() *Error {
	return &Error{}
}

func (e *Error) WithCode(code int) *Error {
	e.code = code
	return e
}

func (e *Error) WithMessage(msg string) *Error {
	e.message = msg
	return e
}

func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	e.message = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) WithError(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) Code() int {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%d] %s: %s", e.code, e.message, e.cause.Error())
	}
	return fmt.Sprintf("[%d] %s", e.code, e.message)
}

// Wrap adds stack-trace context to a lower-level I/O error using
// github.com/pkg/errors, for errors that don't need a numeric code
// (e.g. returned straight from an os.* or io.* call).
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}
