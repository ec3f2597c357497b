// Package errs provides coded errors for the fixture manager and page objects.
package errs

import (
	"errors"

	"github.com/playwright-community/playwright-go"
)

// Code is an error code.
type Code string

const (
	InvalidArgument Code = "invalid_argument"
	NotFound        Code = "not_found"
	Timeout         Code = "timeout"
	Unavailable     Code = "unavailable"
	Internal        Code = "internal"
)

// Error is a coded error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// FromBrowser wraps an error returned by Playwright. Playwright timeouts become
// Timeout; everything else becomes Internal. A nil cause returns nil.
func FromBrowser(message string, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, playwright.ErrTimeout) {
		return Wrap(Timeout, message, cause)
	}
	return Wrap(Internal, message, cause)
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	return Internal
}

// IsTimeout reports whether err is, or wraps, a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return true
	}
	var coded *Error
	return errors.As(err, &coded) && coded.Code == Timeout
}
