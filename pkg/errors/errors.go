// Package errors provides structured error types for stanza.
//
// Every failure a conversion can end in carries a machine-readable [Code], so
// the CLI can tell a recoverable condition (a project without setup.py) from
// a fatal one (an unresolvable requirement) without string matching.
//
// # Error Codes
//
// Codes are grouped by the stage that raises them:
//   - INVALID_*: input validation failures
//   - REQUIREMENT_PARSE, INCLUSION_NOT_FOUND, CYCLIC_INCLUSION: requirements files
//   - VERSION_RESOLUTION, TIMEOUT, NETWORK_ERROR: package index lookups
//   - LEGACY_*: setup.py extraction
//   - NO_PROJECT_IDENTITY, DEPENDENCY_CONFLICT: manifest assembly
//
// # Usage
//
//	err := errors.New(errors.ErrCodeRequirementParse, "%s:%d: malformed requirement %q", file, line, text)
//	if errors.Is(err, errors.ErrCodeRequirementParse) {
//	    // report and exit
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeVersionResolution, origErr, "resolve %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Requirements file errors
	ErrCodeRequirementParse  Code = "REQUIREMENT_PARSE"
	ErrCodeInclusionNotFound Code = "INCLUSION_NOT_FOUND"
	ErrCodeCyclicInclusion   Code = "CYCLIC_INCLUSION"

	// Package index errors
	ErrCodeVersionResolution Code = "VERSION_RESOLUTION"
	ErrCodeNetwork           Code = "NETWORK_ERROR"
	ErrCodeTimeout           Code = "TIMEOUT"
	ErrCodeRateLimited       Code = "RATE_LIMITED"

	// Legacy metadata errors
	ErrCodeLegacyFileMissing Code = "LEGACY_FILE_MISSING"
	ErrCodeLegacyExtraction  Code = "LEGACY_EXTRACTION"

	// Manifest assembly errors
	ErrCodeNoProjectIdentity  Code = "NO_PROJECT_IDENTITY"
	ErrCodeDependencyConflict Code = "DEPENDENCY_CONFLICT"

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
// It returns the verdict of the outermost *Error in the chain.
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err should abort a conversion. Only a missing
// setup.py is recoverable; every other error, coded or not, is fatal.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !Is(err, ErrCodeLegacyFileMissing)
}

// RateLimitedError is returned by the index client on HTTP 429.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
