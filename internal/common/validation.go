package common

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldError represents one validation failure
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []FieldError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Err returns nil or a VALIDATION_ERROR AppError listing every failure.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return NewAppError(CodeValidation, strings.Join(messages, "; "), ErrValidation)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value any) *FieldError

// Required - Common validation rules
func Required(fieldName string, value any) *FieldError {
	if value == nil {
		return &FieldError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &FieldError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &FieldError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// MaxLength returns a rule rejecting strings longer than max runes.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value any) *FieldError {
		str, ok := value.(string)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(str) > max {
			return &FieldError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

var tenantCodeRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// TenantCode accepts lowercase slugs such as "demo" or "clinic-7".
func TenantCode(fieldName string, value any) *FieldError {
	str, ok := value.(string)
	if !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	if !tenantCodeRegex.MatchString(str) {
		return &FieldError{
			Field:   fieldName,
			Value:   value,
			Message: "must be lowercase letters, digits, '-' or '_'",
		}
	}
	return nil
}
