// Package errors provides unified error handling across promptpad.
//
// Every interface (browser page, terminal UI, CLI, relay) reports failures
// as *AppError values. The code decides the category and severity, the
// handlers in handlers.go decide how each interface shows them.
//
// Taxonomy:
//   - VALIDATION_ERROR: blank title or content on save, missing prompt on the relay
//   - NOT_FOUND: an operation referenced an id that no longer exists
//   - STORAGE_FAILURE: the persistent store could not be read or written
//   - REMOTE_FAILURE: the completion request or the upstream model call failed
//   - CLIPBOARD_FAILURE: the system clipboard rejected a copy
//
// None of these are fatal; callers always return to an interactive state.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeConflict         ErrorCode = "CONFLICT"

	// Storage errors
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"

	// Network errors
	ErrCodeRemoteFailure ErrorCode = "REMOTE_FAILURE"

	// Local system errors
	ErrCodeClipboardFailure ErrorCode = "CLIPBOARD_FAILURE"
	ErrCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryResource   ErrorCategory = "resource"
	CategoryStorage    ErrorCategory = "storage"
	CategoryNetwork    ErrorCategory = "network"
	CategorySystem     ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Category  ErrorCategory          `json:"category"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = err
	return appErr
}

// categorizeError determines the category and severity based on error code
func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidInput:
		return CategoryValidation, SeverityWarning
	case ErrCodeNotFound:
		return CategoryResource, SeverityInfo
	case ErrCodeMethodNotAllowed, ErrCodeConflict:
		return CategoryResource, SeverityWarning
	case ErrCodeStorageFailure:
		return CategoryStorage, SeverityError
	case ErrCodeRemoteFailure:
		return CategoryNetwork, SeverityError
	case ErrCodeClipboardFailure:
		return CategorySystem, SeverityWarning
	case ErrCodeInternalError:
		return CategorySystem, SeverityCritical
	default:
		return CategorySystem, SeverityError
	}
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error, or converts it to one
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, "Internal error occurred")
}

// Is reports whether err carries the given code anywhere in its chain
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// Common error constructors for frequently used errors
func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

func InvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}

func StorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorageFailure, fmt.Sprintf("Storage operation failed: %s", operation))
}

func RemoteError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeRemoteFailure, fmt.Sprintf("Remote operation failed: %s", operation))
}

func ClipboardError(err error) *AppError {
	return Wrap(err, ErrCodeClipboardFailure, "Clipboard operation failed")
}
