package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode represents a specific error type for preference operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested resource does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodePermissionDenied indicates the caller may not touch the resource.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeStorageFailed indicates the database rejected the operation.
	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
	// ErrCodeCacheUnavailable indicates the cache engine failed.
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// ErrCodeInternal indicates an unclassified failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// PrefError represents a structured error for preference operations.
type PrefError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *PrefError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PrefError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *PrefError) WithContext(key string, value any) *PrefError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Convenience constructors for common error types.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *PrefError {
	return &PrefError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *PrefError {
	return &PrefError{Code: ErrCodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *PrefError {
	return &PrefError{Code: ErrCodeUnauthorized, Message: msg}
}

// PermissionDenied creates a permission denied error.
func PermissionDenied(msg string) *PrefError {
	return &PrefError{Code: ErrCodePermissionDenied, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *PrefError {
	return &PrefError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// StorageFailed wraps a driver error.
func StorageFailed(msg string, cause error) *PrefError {
	return &PrefError{Code: ErrCodeStorageFailed, Message: msg, Cause: cause}
}

// CacheUnavailable wraps a cache engine error.
func CacheUnavailable(msg string, cause error) *PrefError {
	return &PrefError{Code: ErrCodeCacheUnavailable, Message: msg, Cause: cause}
}

// IsCode checks if an error, or any error it wraps, has the given code.
func IsCode(err error, code ErrorCode) bool {
	var prefErr *PrefError
	if errors.As(err, &prefErr) {
		return prefErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a PrefError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var prefErr *PrefError
	if errors.As(err, &prefErr) {
		return prefErr.Code
	}
	return defaultCode
}
