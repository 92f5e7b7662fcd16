// Package errors defines the closed set of error categories used by the
// entropy validation core. Transport adapters map these codes to their own
// status vocabulary; nothing inside the core ever deals in HTTP codes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a job or report was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid caller input.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeStateConflict indicates a transition was attempted from the wrong job status.
	ErrCodeStateConflict ErrorCode = "state_conflict"
	// ErrCodeServiceUnavailable indicates the assessment service was unreachable or erroring.
	ErrCodeServiceUnavailable ErrorCode = "service_unavailable"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and
// optional cause. It supports error wrapping and unwrapping for use with
// errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// StateConflict creates a new StateConflict error.
func StateConflict(message string) *AppError {
	return &AppError{Code: ErrCodeStateConflict, Message: message}
}

// StateConflictf creates a new StateConflict error with formatted message.
func StateConflictf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeStateConflict, Message: fmt.Sprintf(format, args...)}
}

// ServiceUnavailable creates a new ServiceUnavailable error.
func ServiceUnavailable(message string) *AppError {
	return &AppError{Code: ErrCodeServiceUnavailable, Message: message}
}

// ServiceUnavailablef creates a new ServiceUnavailable error with formatted message.
func ServiceUnavailablef(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsStateConflict checks if an error is a StateConflict error.
func IsStateConflict(err error) bool {
	return isCode(err, ErrCodeStateConflict)
}

// IsServiceUnavailable checks if an error is a ServiceUnavailable error.
func IsServiceUnavailable(err error) bool {
	return isCode(err, ErrCodeServiceUnavailable)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetCodeOr returns the ErrorCode from an error, or fallback if the error
// carries no code. Useful when re-wrapping must keep the original category.
func GetCodeOr(err error, fallback ErrorCode) ErrorCode {
	if code := GetCode(err); code != "" {
		return code
	}
	return fallback
}
