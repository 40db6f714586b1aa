package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the rxflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoElements indicates that a source completed without producing the
	// element a consumer required
	ErrNoElements = errors.New("source completed without elements")

	// ErrNilSource indicates that a factory or recovery function returned a nil source
	ErrNilSource = errors.New("source is nil")
)

// ValidationError describes an invalid argument passed to a constructor or operator.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrInvalidConfiguration) match any validation failure.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransformError is the failure raised by a transforming stage that refuses
// an element. It carries only a human-readable message.
type TransformError struct {
	Message string
}

// NewTransformError creates a TransformError with the given message.
func NewTransformError(message string) *TransformError {
	return &TransformError{Message: message}
}

func (e *TransformError) Error() string {
	return e.Message
}

// PanicError wraps a value recovered from a panicking user callback.
type PanicError struct {
	Op    string
	Value interface{}
	Stack []byte
}

// NewPanicError creates a PanicError for the named operation.
func NewPanicError(op string, value interface{}, stack []byte) *PanicError {
	return &PanicError{Op: op, Value: value, Stack: stack}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Op, e.Value)
}

// Unwrap exposes the recovered value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsPanic reports whether err was produced by a recovered panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
