// Package core defines the shared error taxonomy for droidpilot.
package core

import (
	"fmt"
)

// ErrorCategory classifies where a failure originated.
type ErrorCategory int

const (
	ErrCategoryNone      ErrorCategory = iota
	ErrCategoryTransport               // adb transport: reset, offline, handshake
	ErrCategoryAgent                   // automation agent: malformed response, crash
	ErrCategoryApp                     // target application: missing package, crash
	ErrCategoryConfig                  // invalid or missing configuration
	ErrCategoryUnknown                 // unclassified
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryTransport:
		return "transport"
	case ErrCategoryAgent:
		return "agent"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: device_offline, malformed_response, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches two ExecutionErrors by code, so copies produced by
// WithCause/WithDetails still satisfy errors.Is against the predefined
// error values.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors recognized by the fault classifier
var (
	// Transport errors
	ErrConnectionReset = &ExecutionError{
		Category: ErrCategoryTransport,
		Code:     "connection_reset",
		Message:  "connection reset by peer",
	}
	ErrDeviceOffline = &ExecutionError{
		Category: ErrCategoryTransport,
		Code:     "device_offline",
		Message:  "device is offline",
	}
	ErrDeviceNotFound = &ExecutionError{
		Category: ErrCategoryTransport,
		Code:     "device_not_found",
		Message:  "device not found",
	}
	ErrHandshakeMismatch = &ExecutionError{
		Category: ErrCategoryTransport,
		Code:     "handshake_mismatch",
		Message:  "adb handshake did not return OKAY",
	}

	// Agent errors
	ErrMalformedResponse = &ExecutionError{
		Category: ErrCategoryAgent,
		Code:     "malformed_response",
		Message:  "malformed response from automation agent",
	}
	ErrAgentNotReady = &ExecutionError{
		Category: ErrCategoryAgent,
		Code:     "agent_not_ready",
		Message:  "automation agent is not responding",
	}

	// App errors
	ErrPackageNotFound = &ExecutionError{
		Category: ErrCategoryApp,
		Code:     "package_not_found",
		Message:  "package is not installed on the device",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
