package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried by AppError.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeUnknownEmail        = "UNKNOWN_EMAIL"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeDelivery            = "DELIVERY_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Any AppError with the same Code matches.
var (
	ErrValidation          = &AppError{Code: CodeValidation}
	ErrUnauthorized        = &AppError{Code: CodeUnauthorized}
	ErrForbidden           = &AppError{Code: CodeForbidden}
	ErrNotFound            = &AppError{Code: CodeNotFound}
	ErrDuplicateEmail      = &AppError{Code: CodeDuplicateEmail}
	ErrUnknownEmail        = &AppError{Code: CodeUnknownEmail}
	ErrInvalidPassword     = &AppError{Code: CodeInvalidPassword}
	ErrConstraintViolation = &AppError{Code: CodeConstraintViolation}
	ErrDelivery            = &AppError{Code: CodeDelivery}
	ErrInternal            = &AppError{Code: CodeInternal}
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewDuplicateEmailError() *AppError {
	return &AppError{
		Code:    CodeDuplicateEmail,
		Message: "You've already signed up with that email, log in instead",
	}
}

func NewUnknownEmailError() *AppError {
	return &AppError{
		Code:    CodeUnknownEmail,
		Message: "That email does not exist. Please try again.",
	}
}

func NewInvalidPasswordError() *AppError {
	return &AppError{
		Code:    CodeInvalidPassword,
		Message: "Invalid password, please try again.",
	}
}

func NewConstraintViolationError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConstraintViolation,
		Message: message,
		Err:     err,
	}
}

func NewDeliveryError(err error) *AppError {
	return &AppError{
		Code:    CodeDelivery,
		Message: "Sorry, your message could not be sent. Please try again later.",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HTTPStatus maps an error to the status code of the page that reports it.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeUnknownEmail, CodeInvalidPassword:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateEmail, CodeConstraintViolation:
		return http.StatusConflict
	case CodeDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
