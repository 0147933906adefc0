// Package errors provides structured error types for shed.
//
// Every failure that crosses a pipeline stage boundary carries a Code so the
// orchestrator, the CLI and the HTTP API can decide how to react without
// string matching:
//   - DETECTION_FAILED: no recognizable source files in the repository
//   - UNSUPPORTED_LANGUAGE: a detected language has no extraction strategy
//   - EXTRACTION_TIMEOUT / EXTRACTION_FAILED: the isolated runner gave up
//   - PARSE_SKIP: a single malformed entry in extractor output
//   - RESEARCH_TRANSIENT / RESEARCH_FAILED: license lookup problems
//   - ABORTED: the whole run stopped
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDetection, "no source files in %s", root)
//	if errors.Is(err, errors.ErrCodeDetection) {
//	    // abort the run
//	}
//
//	err := errors.Wrap(errors.ErrCodeExtractionFailed, cause, "strategy %s", name)
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
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Pipeline errors
	ErrCodeDetection           Code = "DETECTION_FAILED"
	ErrCodeUnsupportedLanguage Code = "UNSUPPORTED_LANGUAGE"
	ErrCodeExtractionTimeout   Code = "EXTRACTION_TIMEOUT"
	ErrCodeExtractionFailed    Code = "EXTRACTION_FAILED"
	ErrCodeParseSkip           Code = "PARSE_SKIP"
	ErrCodeResearchTransient   Code = "RESEARCH_TRANSIENT"
	ErrCodeResearchFailed      Code = "RESEARCH_FAILED"
	ErrCodeAborted             Code = "ABORTED"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

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
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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

// Describe returns the messages of the whole chain joined by ": ",
// without codes.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + Describe(e.Cause)
}
