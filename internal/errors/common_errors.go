package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMalformedInput      ErrorType = "MALFORMED_INPUT"
	ErrTypeInsufficientHistory ErrorType = "INSUFFICIENT_HISTORY"
	ErrTypeValidation          ErrorType = "VALIDATION"
	ErrTypeNotFound            ErrorType = "NOT_FOUND"
	ErrTypeConfig              ErrorType = "CONFIG"
	ErrTypeStorage             ErrorType = "STORAGE"
)

// Sentinels for errors.Is checks against AppError types
var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrInsufficientHistory = errors.New("insufficient history")
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel that corresponds to the error type
func (e *AppError) Is(target error) bool {
	switch target {
	case ErrMalformedInput:
		return e.Type == ErrTypeMalformedInput
	case ErrInsufficientHistory:
		return e.Type == ErrTypeInsufficientHistory
	}
	return false
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMalformedInputError reports a file that cannot be turned into observations.
// Row and column are omitted from the context when not positive or empty.
func NewMalformedInputError(file string, row int, column, message string, cause error) *AppError {
	msg := file
	if row > 0 {
		msg = fmt.Sprintf("%s row %d", msg, row)
	}
	if column != "" {
		msg = fmt.Sprintf("%s column %q", msg, column)
	}
	err := NewAppError(ErrTypeMalformedInput, fmt.Sprintf("%s: %s", msg, message), cause).
		WithContext("file", file)
	if row > 0 {
		err.WithContext("row", row)
	}
	if column != "" {
		err.WithContext("column", column)
	}
	return err
}

// NewInsufficientHistoryError reports a series too short to forecast
func NewInsufficientHistoryError(have, need int) *AppError {
	return NewAppError(ErrTypeInsufficientHistory,
		fmt.Sprintf("forecast needs at least %d historical points, got %d", need, have), nil).
		WithContext("have", have).
		WithContext("need", need)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
