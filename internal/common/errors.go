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
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDatabase        = errors.New("database error")
	ErrValidation      = errors.New("validation failed")
	ErrNoActiveRuleSet = errors.New("no active rule set")
)

// Error codes carried by AppError.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeDatabase   = "DATABASE_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFoundErrorf builds a NOT_FOUND AppError wrapping ErrNotFound.
func NotFoundErrorf(format string, args ...any) error {
	return NewAppError(CodeNotFound, fmt.Sprintf(format, args...), ErrNotFound)
}

// ValidationErrorf builds a VALIDATION_ERROR AppError wrapping ErrValidation.
func ValidationErrorf(format string, args ...any) error {
	return NewAppError(CodeValidation, fmt.Sprintf(format, args...), ErrValidation)
}
