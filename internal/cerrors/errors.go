// Package cerrors provides typed errors for compd. Every error carries
// a stable code so the daemon can map failures onto wire error codes
// without string matching.
package cerrors

import (
	"errors"
	"fmt"
)

// Wire error codes, shared with the shell integration protocol.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidBuffer  = "INVALID_BUFFER"
	CodeInvalidCursor  = "INVALID_CURSOR"
	CodeParseError     = "PARSE_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// Internal codes for spec-source failures. These never reach the wire:
// a bad spec degrades to an empty suggestion list.
const (
	CodeSpecNotFound = "SPEC_NOT_FOUND"
	CodeSpecCorrupt  = "SPEC_CORRUPT"
	CodeSpecVersion  = "SPEC_VERSION_MISMATCH"
)

// Error is the base interface for all compd errors.
type Error interface {
	error
	// Code returns a stable error code for programmatic handling.
	Code() string
}

// baseError provides common functionality for all compd errors
type baseError struct {
	code    string
	message string
	cause   error
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Code() string {
	return e.code
}

func (e *baseError) Unwrap() error {
	return e.cause
}

// InvalidRequestError represents a request the daemon could not decode.
type InvalidRequestError struct {
	baseError
}

// NewInvalidRequestError creates a new invalid request error
func NewInvalidRequestError(message string, cause error) *InvalidRequestError {
	return &InvalidRequestError{
		baseError: baseError{code: CodeInvalidRequest, message: message, cause: cause},
	}
}

// RequestTooLargeError represents a request exceeding the size limit.
// On the wire it is reported as an invalid request.
type RequestTooLargeError struct {
	baseError
	Limit int
}

// NewRequestTooLargeError creates a new request too large error
func NewRequestTooLargeError(limit int) *RequestTooLargeError {
	return &RequestTooLargeError{
		baseError: baseError{
			code:    CodeInvalidRequest,
			message: fmt.Sprintf("request exceeds %d bytes", limit),
		},
		Limit: limit,
	}
}

// InvalidBufferError represents a buffer violating protocol constraints.
type InvalidBufferError struct {
	baseError
	Length int
}

// NewInvalidBufferError creates a new invalid buffer error
func NewInvalidBufferError(length, limit int) *InvalidBufferError {
	return &InvalidBufferError{
		baseError: baseError{
			code:    CodeInvalidBuffer,
			message: fmt.Sprintf("buffer length %d exceeds %d bytes", length, limit),
		},
		Length: length,
	}
}

// InvalidCursorError represents a cursor outside [0, len(buffer)].
type InvalidCursorError struct {
	baseError
	Cursor int
	Length int
}

// NewInvalidCursorError creates a new invalid cursor error
func NewInvalidCursorError(cursor, length int) *InvalidCursorError {
	return &InvalidCursorError{
		baseError: baseError{
			code:    CodeInvalidCursor,
			message: fmt.Sprintf("cursor %d outside buffer of length %d", cursor, length),
		},
		Cursor: cursor,
		Length: length,
	}
}

// SpecNotFoundError represents a command with no known completion spec.
type SpecNotFoundError struct {
	baseError
	Name string
}

// NewSpecNotFoundError creates a new spec not found error
func NewSpecNotFoundError(name string) *SpecNotFoundError {
	return &SpecNotFoundError{
		baseError: baseError{
			code:    CodeSpecNotFound,
			message: fmt.Sprintf("no completion spec for %q", name),
		},
		Name: name,
	}
}

// SpecCorruptError represents a spec blob that failed to deserialize.
type SpecCorruptError struct {
	baseError
	Name string
}

// NewSpecCorruptError creates a new spec corrupt error
func NewSpecCorruptError(name, message string, cause error) *SpecCorruptError {
	return &SpecCorruptError{
		baseError: baseError{code: CodeSpecCorrupt, message: message, cause: cause},
		Name:      name,
	}
}

// SpecVersionError represents a spec blob with an unsupported version.
type SpecVersionError struct {
	baseError
	Name     string
	Expected int
	Found    int
}

// NewSpecVersionError creates a new spec version mismatch error
func NewSpecVersionError(name string, expected, found int) *SpecVersionError {
	return &SpecVersionError{
		baseError: baseError{
			code:    CodeSpecVersion,
			message: fmt.Sprintf("spec %q has version %d, expected %d", name, found, expected),
		},
		Name:     name,
		Expected: expected,
		Found:    found,
	}
}

// InternalError represents an unexpected fault inside the pipeline.
type InternalError struct {
	baseError
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		baseError: baseError{code: CodeInternal, message: message, cause: cause},
	}
}

// WireCode maps an error onto a protocol error code. Errors without a
// compd code, including timeouts, are reported as internal.
func WireCode(err error) string {
	var ce Error
	if errors.As(err, &ce) {
		switch ce.Code() {
		case CodeInvalidRequest, CodeInvalidBuffer, CodeInvalidCursor, CodeParseError:
			return ce.Code()
		}
	}
	return CodeInternal
}
