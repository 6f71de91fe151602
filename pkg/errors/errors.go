// Package errors provides code-typed errors for blocktower.
//
// Every error a caller can react to carries a [Code]: malformed problem
// files, bad configuration, unknown output formats, inconsistent
// decompositions and failed translations. Invariant and precondition
// violations inside a decomposition are programming errors and panic
// instead.
//
//	err := errors.New(errors.ErrCodeInvalidProblem, "unknown variable %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidProblem) {
//	    ...
//	}
//
// [Wrap] keeps the cause reachable for the standard library's errors.Is and
// errors.As.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error class.
type Code string

const (
	// Rejected input
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidScore   Code = "INVALID_SCORE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidProblem Code = "INVALID_PROBLEM"

	// Lookups
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Decompositions
	ErrCodeInconsistent      Code = "INCONSISTENT"
	ErrCodeTranslationFailed Code = "TRANSLATION_FAILED"

	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error pairs a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix. Errors without a
// code are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
