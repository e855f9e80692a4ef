// Package errors provides structured error types for lockbridge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across all commands
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages with remedial instructions
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes fall into four categories mirroring how failures surface
// to the operator:
//   - USAGE_*: operator mistakes, fixable by re-running differently
//   - INVALID_*: malformed input documents, fatal for the whole run
//   - EXTERNAL_TOOL: the resolver subprocess exited non-zero
//   - HASH_RESOLUTION: an artifact hash could not be computed or fetched
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSpecifier, "invalid specifier: %s", spec)
//	if errors.Is(err, errors.ErrCodeInvalidSpecifier) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeHashResolution, origErr, "failed to hash %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Usage errors, surfaced with a remedial instruction and never retried
	ErrCodeUsage          Code = "USAGE_ERROR"
	ErrCodeNoLockfile     Code = "USAGE_NO_LOCKFILE"
	ErrCodeLockStrategy   Code = "USAGE_LOCK_STRATEGY"
	ErrCodeSelfFlags      Code = "USAGE_SELF_FLAGS"
	ErrCodeUnknownGroup   Code = "USAGE_UNKNOWN_GROUP"
	ErrCodeInvalidFormat  Code = "USAGE_INVALID_FORMAT"
	ErrCodeInvalidProject Code = "USAGE_INVALID_PROJECT"

	// Format errors, fatal for the enclosing parse
	ErrCodeInvalidSpecifier Code = "INVALID_SPECIFIER"
	ErrCodeInvalidVcsRef    Code = "INVALID_VCS_REF"
	ErrCodeInvalidLockfile  Code = "INVALID_LOCKFILE"
	ErrCodeInvalidLine      Code = "INVALID_REQUIREMENT"

	// External collaborator failures
	ErrCodeExternalTool   Code = "EXTERNAL_TOOL"
	ErrCodeHashResolution Code = "HASH_RESOLUTION"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsUsage reports whether err is an operator mistake rather than an
// internal or input-document failure. Usage errors carry a remedial
// instruction and are rendered without the error code prefix.
func IsUsage(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		switch e.Code {
		case ErrCodeUsage, ErrCodeNoLockfile, ErrCodeLockStrategy,
			ErrCodeSelfFlags, ErrCodeUnknownGroup, ErrCodeInvalidFormat,
			ErrCodeInvalidProject:
			return true
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
