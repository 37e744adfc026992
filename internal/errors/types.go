// Package errors defines the structured error types shared across headsync.
//
// The error taxonomy mirrors how failures propagate through the coordinator:
// contract violations are fatal to the caller and signal an ordering bug
// upstream, bridge failures are isolated to the single queued operation that
// observed them, and configuration errors abort startup.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeContract   ErrorType = "contract"
	ErrorTypeBridge     ErrorType = "bridge"
	ErrorTypeNavigation ErrorType = "navigation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// HeadsyncError is a structured error type with context.
type HeadsyncError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *HeadsyncError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *HeadsyncError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *HeadsyncError) Is(target error) bool {
	var t *HeadsyncError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *HeadsyncError) WithContext(key string, value interface{}) *HeadsyncError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *HeadsyncError) WithComponent(component string) *HeadsyncError {
	e.Component = component

	return e
}

// Error creation functions

// NewContractError creates a contract violation error. Contract violations
// indicate an ordering or usage bug in the caller and are never recoverable.
func NewContractError(code, message string) *HeadsyncError {
	return &HeadsyncError{
		Type:        ErrorTypeContract,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewBridgeError creates a bridge call error. Bridge failures are isolated to
// the one queued operation that observed them, so they are recoverable from
// the coordinator's point of view.
func NewBridgeError(code, message string, cause error) *HeadsyncError {
	return &HeadsyncError{
		Type:        ErrorTypeBridge,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewNavigationError creates a navigation error.
func NewNavigationError(code, message string) *HeadsyncError {
	return &HeadsyncError{
		Type:        ErrorTypeNavigation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *HeadsyncError {
	return &HeadsyncError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *HeadsyncError {
	return &HeadsyncError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsContractViolation checks if an error is a contract violation.
func IsContractViolation(err error) bool {
	var he *HeadsyncError
	if errors.As(err, &he) {
		return he.Type == ErrorTypeContract
	}

	return false
}

// IsBridgeError checks if an error is bridge-related.
func IsBridgeError(err error) bool {
	var he *HeadsyncError
	if errors.As(err, &he) {
		return he.Type == ErrorTypeBridge
	}

	return false
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var he *HeadsyncError
	if errors.As(err, &he) {
		return he.Recoverable
	}

	return false
}

// Common error codes.
const (
	ErrCodeHeadContentBeforeRender = "ERR_HEAD_CONTENT_BEFORE_RENDER"
	ErrCodeCoordinatorNotStarted   = "ERR_COORDINATOR_NOT_STARTED"
	ErrCodeCoordinatorStarted      = "ERR_COORDINATOR_ALREADY_STARTED"
	ErrCodeCoordinatorDisposed     = "ERR_COORDINATOR_DISPOSED"
	ErrCodeBridgeCallFailed        = "ERR_BRIDGE_CALL_FAILED"
	ErrCodeBridgeUnavailable       = "ERR_BRIDGE_UNAVAILABLE"
	ErrCodeBridgeClosed            = "ERR_BRIDGE_CLOSED"
	ErrCodeInvalidOrigin           = "ERR_INVALID_ORIGIN"
	ErrCodeConfigInvalid           = "ERR_CONFIG_INVALID"
	ErrCodeOperationPanicked       = "ERR_OPERATION_PANICKED"
	ErrCodeInternalError           = "ERR_INTERNAL"
)

// Helper functions for common errors

// ErrHeadContentBeforeRender creates the contract violation raised when head
// content is supplied before the initial render has completed.
func ErrHeadContentBeforeRender() *HeadsyncError {
	return NewContractError(
		ErrCodeHeadContentBeforeRender,
		"head content supplied before initial render completed",
	)
}

// ErrCoordinatorNotStarted creates the contract violation raised when a
// lifecycle notification arrives before Start.
func ErrCoordinatorNotStarted() *HeadsyncError {
	return NewContractError(
		ErrCodeCoordinatorNotStarted,
		"coordinator has not been started",
	)
}

// ErrCoordinatorAlreadyStarted creates the contract violation raised when
// Start is called twice.
func ErrCoordinatorAlreadyStarted() *HeadsyncError {
	return NewContractError(
		ErrCodeCoordinatorStarted,
		"coordinator has already been started",
	)
}

// ErrCoordinatorDisposed creates the error raised when a disposed coordinator
// receives further notifications.
func ErrCoordinatorDisposed() *HeadsyncError {
	return NewContractError(
		ErrCodeCoordinatorDisposed,
		"coordinator has been disposed",
	)
}

// ErrBridgeCall wraps a failed bridge operation.
func ErrBridgeCall(operation string, cause error) *HeadsyncError {
	return NewBridgeError(
		ErrCodeBridgeCallFailed,
		"bridge call failed: "+operation,
		cause,
	)
}

// ErrBridgeUnavailable wraps a failed bridge handle acquisition.
func ErrBridgeUnavailable(cause error) *HeadsyncError {
	return NewBridgeError(
		ErrCodeBridgeUnavailable,
		"bridge handle unavailable",
		cause,
	)
}

// ErrInvalidOrigin creates an invalid origin error for rejected websocket
// upgrade requests.
func ErrInvalidOrigin(origin string) *HeadsyncError {
	return NewNavigationError(ErrCodeInvalidOrigin, "invalid origin: "+origin)
}
