// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrInvalidParameterIndex is returned when a parameter or output slot
	// outside the declared arity is addressed.
	ErrInvalidParameterIndex = errors.New("invalid parameter index")
	ErrParameterOutOfRange   = errors.New("parameter out of range")
	ErrUnknownIndicator      = errors.New("unknown indicator")
	ErrInputMismatch         = errors.New("input series mismatch")
	ErrConfigInvalid         = errors.New("invalid configuration")
	ErrDataNotFound          = errors.New("data not found")
	ErrDatabaseError         = errors.New("database error")
	ErrInputValidation       = errors.New("input validation failed")
)

// ParameterError reports a configuration error on one indicator parameter or
// output slot.
type ParameterError struct {
	Indicator string
	Index     int
	Name      string
	Value     interface{}
	Err       error
}

func (e *ParameterError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s parameter %d (%s=%v): %v", e.Indicator, e.Index, e.Name, e.Value, e.Err)
	}
	return fmt.Sprintf("%s slot %d: %v", e.Indicator, e.Index, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// NewParameterError creates a new ParameterError.
func NewParameterError(indicator string, index int, name string, value interface{}, err error) *ParameterError {
	return &ParameterError{
		Indicator: indicator,
		Index:     index,
		Name:      name,
		Value:     value,
		Err:       err,
	}
}

// InputError reports input series that do not match an indicator's declared
// inputs.
type InputError struct {
	Indicator string
	Expected  int
	Got       int
	Message   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s (expected %d, got %d)", e.Indicator, e.Message, e.Expected, e.Got)
}

func (e *InputError) Unwrap() error {
	return ErrInputMismatch
}

// NewInputError creates a new InputError.
func NewInputError(indicator string, expected, got int, message string) *InputError {
	return &InputError{
		Indicator: indicator,
		Expected:  expected,
		Got:       got,
		Message:   message,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
