// Package errors provides structured error types for imtiler.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Configuration and input validation failures
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Construction-time problems (a tile dimension larger than the grid, an empty
// mask where coverage is required, a malformed acceptance value) are reported
// with these codes. Running out of candidate positions while collecting tiles
// is not an error; samplers return partial results instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidTileDim, "tile dim %d too large for %dx%d", d, rows, cols)
//	if errors.Is(err, errors.ErrCodeInvalidTileDim) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidImage, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidTileDim      Code = "INVALID_TILE_DIM"
	ErrCodeInvalidAccept       Code = "INVALID_ACCEPT"
	ErrCodeInvalidConnectivity Code = "INVALID_CONNECTIVITY"
	ErrCodeInvalidMode         Code = "INVALID_MODE"
	ErrCodeInvalidConfig       Code = "INVALID_CONFIG"
	ErrCodeEmptyMask           Code = "EMPTY_MASK"
	ErrCodeShapeMismatch       Code = "SHAPE_MISMATCH"

	// Input data errors
	ErrCodeInvalidImage  Code = "INVALID_IMAGE"
	ErrCodeInvalidResult Code = "INVALID_RESULT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status used by the API server.
// Configuration and input errors are client errors; everything else is a 500.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidTileDim, ErrCodeInvalidAccept,
		ErrCodeInvalidConnectivity, ErrCodeInvalidMode, ErrCodeInvalidConfig,
		ErrCodeEmptyMask, ErrCodeShapeMismatch, ErrCodeInvalidImage, ErrCodeInvalidResult:
		return 400
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeUnsupported:
		return 501
	}
	return 500
}
