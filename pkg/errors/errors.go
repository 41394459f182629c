// Package errors provides structured error types for cratemover.
//
// Every failure raised while parsing a crate diagram, parsing move
// instructions or running a crane carries a machine-readable [Code], so that
// the CLI, the HTTP API and tests can branch on the kind of failure without
// matching message text.
//
// # Error Codes
//
// Domain codes mirror the stages of a run:
//   - MALFORMED_HEADER, SECTION_SEPARATOR_MISSING: diagram parsing
//   - INSTRUCTION_SYNTAX, NUMERIC_OVERFLOW: instruction parsing
//   - ORIGIN_OUT_OF_RANGE, DESTINATION_OUT_OF_RANGE, INSUFFICIENT_UNITS: simulation
//
// Ambient codes (INVALID_*, NETWORK_ERROR, INTERNAL_ERROR) cover configuration,
// caching and transport.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedHeader, "no stack index in %q", row)
//	if errors.Is(err, errors.ErrCodeMalformedHeader) {
//	    // Handle header error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNumericOverflow, origErr, "count %q", raw)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Diagram errors
	ErrCodeMalformedHeader  Code = "MALFORMED_HEADER"
	ErrCodeSeparatorMissing Code = "SECTION_SEPARATOR_MISSING"

	// Instruction errors
	ErrCodeInstructionSyntax Code = "INSTRUCTION_SYNTAX"
	ErrCodeNumericOverflow   Code = "NUMERIC_OVERFLOW"

	// Simulation errors
	ErrCodeOriginOutOfRange      Code = "ORIGIN_OUT_OF_RANGE"
	ErrCodeDestinationOutOfRange Code = "DESTINATION_OUT_OF_RANGE"
	ErrCodeInsufficientUnits     Code = "INSUFFICIENT_UNITS"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidPolicy Code = "INVALID_POLICY"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Infrastructure errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeTimeout  Code = "TIMEOUT"

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

// IsSimulation reports whether err was raised while applying a move, as
// opposed to while parsing the input.
func IsSimulation(err error) bool {
	switch GetCode(err) {
	case ErrCodeOriginOutOfRange, ErrCodeDestinationOutOfRange, ErrCodeInsufficientUnits:
		return true
	}
	return false
}

// IsInstruction reports whether err was raised by a single instruction line
// (its syntax, its numbers or its execution). Lenient runs skip these.
func IsInstruction(err error) bool {
	switch GetCode(err) {
	case ErrCodeInstructionSyntax, ErrCodeNumericOverflow:
		return true
	}
	return IsSimulation(err)
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeMalformedHeader, ErrCodeSeparatorMissing, ErrCodeInstructionSyntax,
		ErrCodeNumericOverflow, ErrCodeInvalidInput, ErrCodeInvalidPolicy, ErrCodeInvalidConfig, ErrCodeInvalidFormat:
		return 400
	case ErrCodeOriginOutOfRange, ErrCodeDestinationOutOfRange, ErrCodeInsufficientUnits:
		return 422
	case ErrCodeNotFound:
		return 404
	case ErrCodeTimeout:
		return 504
	case ErrCodeNetwork:
		return 502
	default:
		return 500
	}
}
