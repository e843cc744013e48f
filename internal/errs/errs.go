// Package errs defines the coded errors shared by the page, hook and session
// layers.
package errs

import (
	"errors"
)

// Code is a failure class.
type Code string

const (
	// ElementNotFound means a wait policy elapsed without its condition holding.
	ElementNotFound Code = "element_not_found"
	// ElementNotInteractable means the element was found but could not be acted on.
	ElementNotInteractable Code = "element_not_interactable"
	// Session means the driver session is gone or broken. Always fatal to a scenario.
	Session Code = "session"
	// ArtifactCapture means a screenshot or report artifact could not be produced.
	ArtifactCapture Code = "artifact_capture"
	// Config means the environment profile could not be loaded or validated.
	Config          Code = "config"
	InvalidArgument Code = "invalid_argument"
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
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
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

// CodeOf returns the outermost error code, defaulting to internal.
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

// Is reports whether err carries code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var coded *Error
		if !errors.As(err, &coded) {
			return false
		}
		if coded.Code == code {
			return true
		}
		err = coded.Err
	}
	return false
}
