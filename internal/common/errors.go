package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrConfiguration = errors.New("configuration error")
	ErrInputNotFound = errors.New("input not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrValidation    = errors.New("validation failed")
	ErrTransport     = errors.New("model transport error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError builds the fatal error returned when a required setting is absent or unusable.
func ConfigError(message string) error {
	return NewAppError("CONFIG_ERROR", message, ErrConfiguration)
}
