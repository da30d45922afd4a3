package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors (no external dependencies).
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUserNotFound = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("duplicate resource")
	ErrConflict     = errors.New("conflict with current state")
	ErrEmailTaken   = errors.New("email already registered")
)

// FieldError is a single field-level validation failure. Line is 1-based and
// refers to the position of the offending line item in the request; 0 means
// the error is not tied to a specific line.
type FieldError struct {
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError carries field-level detail for a rejected request.
// errors.Is(err, ErrInvalidInput) holds for every ValidationError, so callers
// that only care about the error kind keep working with the sentinel.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		switch {
		case f.Line > 0 && f.Field != "":
			parts = append(parts, fmt.Sprintf("line %d: %s: %s", f.Line, f.Field, f.Message))
		case f.Line > 0:
			parts = append(parts, fmt.Sprintf("line %d: %s", f.Line, f.Message))
		case f.Field != "":
			parts = append(parts, f.Field+": "+f.Message)
		default:
			parts = append(parts, f.Message)
		}
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Is makes ValidationError match the ErrInvalidInput sentinel.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError builds a ValidationError without field detail.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewLineValidationError builds a ValidationError for one offending line item.
func NewLineValidationError(line int, field, message string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  []FieldError{{Line: line, Field: field, Message: message}},
	}
}

// NewFieldValidationError builds a ValidationError for one named field.
func NewFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}
