// Package errors defines the typed errors shared by every cib transport.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ValidationFailed indicates a missing or empty required request field
	ValidationFailed ErrorCode = "VALIDATION_FAILED"
	// SymbolNotFound indicates the symbol could not be resolved anywhere
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// EngineUnavailable indicates no intelligence engine can serve the query
	EngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	// EngineFailed indicates the engine call failed or returned malformed data
	EngineFailed ErrorCode = "ENGINE_FAILED"
	// TransportFailed indicates a bind/listen failure; fatal to startup
	TransportFailed ErrorCode = "TRANSPORT_FAILED"
	// Timeout indicates a request exceeded its deadline
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// BridgeError represents a cib error with a stable code and message
type BridgeError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new BridgeError
func New(code ErrorCode, message string, cause error) *BridgeError {
	return &BridgeError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes(code),
	}
}

// Error implements the error interface
func (e *BridgeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BridgeError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *BridgeError) WithDetails(details interface{}) *BridgeError {
	e.Details = details
	return e
}

// CodeOf extracts the error code, or INTERNAL_ERROR for untyped errors
func CodeOf(err error) ErrorCode {
	var be *BridgeError
	if stderrors.As(err, &be) {
		return be.Code
	}
	return InternalError
}

// IsNotFound reports whether err is a symbol-not-found outcome
func IsNotFound(err error) bool {
	return CodeOf(err) == SymbolNotFound
}

// IsValidation reports whether err is a user-correctable validation failure
func IsValidation(err error) bool {
	return CodeOf(err) == ValidationFailed
}

// errorActions maps error codes to suggested fix actions
var errorActions = map[ErrorCode][]FixAction{
	EngineUnavailable: {
		{
			Command:     "cib status",
			Description: "Check which engines are configured and reachable",
		},
	},
	TransportFailed: {
		{
			Command:     "cib endpoint",
			Description: "Show the derived endpoint address and check for a stale socket",
		},
	},
}

// suggestedFixes returns suggested fixes for an error code
func suggestedFixes(code ErrorCode) []FixAction {
	return errorActions[code]
}
