// Package errors provides structured error types for dialoguegraph.
//
// Every failure that crosses a package boundary (authoring operations,
// Graph Store reconstruction, dialogue playback, asset storage) carries a
// machine-readable [Code]. The CLI prints [UserMessage]; the HTTP API maps
// codes to status codes and returns them in the response body.
//
// # Error Codes
//
// Codes group by the layer that raises them:
//   - Reconstruction: DANGLING_REFERENCE, DUPLICATE_START_NODE, MISSING_START_NODE, DUPLICATE_NODE_ID
//   - Authoring: NODE_NOT_FOUND, INVALID_PORT_INDEX, START_NODE_PROTECTED, INVALID_CONNECTION
//   - Playback: INVALID_PORT_INDEX, DIALOGUE_ENDED
//   - Storage and input: INVALID_INPUT, INVALID_ASSET_NAME, NOT_FOUND
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPortIndex, "option %d out of range [0,%d)", i, n)
//	if errors.Is(err, errors.ErrCodeInvalidPortIndex) {
//	    // non-fatal: report and keep the current state
//	}
//
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "write %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph Store integrity errors, raised while reconstructing a graph.
	ErrCodeDanglingReference  Code = "DANGLING_REFERENCE"
	ErrCodeDuplicateStartNode Code = "DUPLICATE_START_NODE"
	ErrCodeMissingStartNode   Code = "MISSING_START_NODE"
	ErrCodeDuplicateNodeID    Code = "DUPLICATE_NODE_ID"

	// Authoring errors
	ErrCodeNodeNotFound       Code = "NODE_NOT_FOUND"
	ErrCodeInvalidPortIndex   Code = "INVALID_PORT_INDEX"
	ErrCodeStartNodeProtected Code = "START_NODE_PROTECTED"
	ErrCodeInvalidConnection  Code = "INVALID_CONNECTION"

	// Playback errors
	ErrCodeDialogueEnded Code = "DIALOGUE_ENDED"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidAssetName Code = "INVALID_ASSET_NAME"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

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
// It unwraps the error chain looking for an *Error with a matching code,
// including errors combined with errors.Join.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
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
