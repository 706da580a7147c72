// Package errors provides structured error types for vizgrid.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP bridge and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Layout errors describe why a matrix or a placement was rejected:
//   - MALFORMED_MATRIX: not a list of lists of non-negative integers, or ragged rows
//   - NON_SEQUENTIAL_IDS: region ids do not form one run starting at 1
//   - NON_RECTANGULAR_REGION: some region is not a solid axis-aligned rectangle
//   - INVALID_REGION: a placement targets a region the matrix does not define
//
// Generic codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedMatrix, "row %d is not a list", i)
//	if errors.Is(err, errors.ErrCodeMalformedMatrix) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "failed to load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Layout errors
	ErrCodeMalformedMatrix      Code = "MALFORMED_MATRIX"
	ErrCodeNonSequentialIDs     Code = "NON_SEQUENTIAL_IDS"
	ErrCodeNonRectangularRegion Code = "NON_RECTANGULAR_REGION"
	ErrCodeInvalidRegion        Code = "INVALID_REGION"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidName    Code = "INVALID_NAME"
	ErrCodeInvalidMessage Code = "INVALID_MESSAGE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeLayoutNotFound  Code = "LAYOUT_NOT_FOUND"
	ErrCodeWidgetNotFound  Code = "WIDGET_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Canonical messages for the layout error kinds.
const (
	MsgMalformedMatrix      = "matrix format must be a list of lists of integers"
	MsgNonRectangularRegion = "matrix must contain only non-duplicate rectangles"
	MsgNonSequentialIDs     = "region ids must be in sequence starting at 1"
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

// MalformedMatrix returns a MALFORMED_MATRIX error. An empty detail yields
// the canonical message.
func MalformedMatrix(detail string, args ...any) *Error {
	if detail == "" {
		return New(ErrCodeMalformedMatrix, MsgMalformedMatrix)
	}
	return New(ErrCodeMalformedMatrix, MsgMalformedMatrix+": "+detail, args...)
}

// NonRectangularRegion returns a NON_RECTANGULAR_REGION error for region id.
func NonRectangularRegion(id int) *Error {
	return New(ErrCodeNonRectangularRegion, "%s (region %d)", MsgNonRectangularRegion, id)
}

// coded is implemented by error types that carry a Code without being *Error.
type coded interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a coded error with a
// matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the chain holds no coded error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coded
	if errors.As(err, &c) {
		return c.Code()
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
	var ir *InvalidRegionError
	if errors.As(err, &ir) {
		return ir.message()
	}
	return err.Error()
}

// InvalidRegionError reports a placement into a region the matrix does not
// define. Available lists every valid region id in ascending order.
type InvalidRegionError struct {
	Requested int
	Available []int
}

// Error implements the error interface.
func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeInvalidRegion, e.message())
}

func (e *InvalidRegionError) message() string {
	return fmt.Sprintf("region %d is not valid; available regions in matrix: %v", e.Requested, e.Available)
}

// Code returns the error code for this error type.
func (e *InvalidRegionError) Code() Code {
	return ErrCodeInvalidRegion
}

// AvailableRegions returns the valid region ids carried by err, if err is (or
// wraps) an *InvalidRegionError.
func AvailableRegions(err error) ([]int, bool) {
	var e *InvalidRegionError
	if errors.As(err, &e) {
		return e.Available, true
	}
	return nil, false
}
