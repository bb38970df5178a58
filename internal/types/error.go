package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types carried in the "type" field of every error response.
const (
	TypeNotFound        = "not_found"
	TypeValidation      = "validation"
	TypeUnauthenticated = "unauthenticated"
	TypeConflict        = "conflict"
	TypeInternal        = "internal"
)

// CustomError is an expected failure with the HTTP status it maps to.
// Ownership failures are reported as not_found on purpose: a caller must not
// learn that another user's board, column or card exists.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Details any    `json:"details,omitempty"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// NewNotFound reports a missing entity, or one the principal may not see.
func NewNotFound(entity string) *CustomError {
	return &CustomError{Code: http.StatusNotFound, Message: entity + " not found", Type: TypeNotFound}
}

// NewValidation reports a missing or malformed field.
func NewValidation(format string, args ...any) *CustomError {
	return &CustomError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...), Type: TypeValidation}
}

func NewUnauthenticated(message string) *CustomError {
	return &CustomError{Code: http.StatusUnauthorized, Message: message, Type: TypeUnauthenticated}
}

func NewConflict(message string) *CustomError {
	return &CustomError{Code: http.StatusConflict, Message: message, Type: TypeConflict}
}

// NewInternal carries the cause as details next to a generic message.
func NewInternal(message string, cause error) *CustomError {
	e := &CustomError{Code: http.StatusInternalServerError, Message: message, Type: TypeInternal}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// IsNotFound reports whether err is a not_found CustomError.
func IsNotFound(err error) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Type == TypeNotFound
}

// IsValidation reports whether err is a validation CustomError.
func IsValidation(err error) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Type == TypeValidation
}
