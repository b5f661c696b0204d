package errors

import "errors"

// Code identifies a structured error type used across the updater.
type Code string

const (
	CodeUnknown Code = "unknown"

	// Configuration errors abort registration.
	CodeConfiguration Code = "configuration_error"

	// Recoverable errors are recorded in the updater state and can be retried.
	CodeNetwork       Code = "network_error"
	CodeInvalidBranch Code = "invalid_branch"
	CodeFileSystem    Code = "filesystem_error"
	CodeBusy          Code = "busy"
	CodeNotChecked    Code = "not_checked"
	CodeUninitialized Code = "uninitialized"
)

// Error represents a structured error with a machine-readable code plus message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code/message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) matches the provided code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsRecoverable reports whether the error leaves the updater in a state the
// user can retry from.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case CodeConfiguration, CodeUninitialized:
		return false
	default:
		return true
	}
}
