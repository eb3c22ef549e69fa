package core

import "github.com/pkg/errors"

// FieldError ties a validation failure to the input field that caused it.
// The API layer renders a set of these as a field-to-message object.
type FieldError struct {
	Field string
	Error string
}

// ValidationError signals rejected input. Err carries the overall cause;
// Fields, when present, pin the cause to specific input fields.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error { return err.Err }

// shutdownError marks a state the process cannot recover from.
// The HTTP error handler turns it into a graceful shutdown signal.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (err *shutdownError) Error() string { return err.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
