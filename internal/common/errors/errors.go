// Package errors provides standardized error handling for the survey kiosk.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Submission path (surfaced to the respondent, retryable by hand)
	ErrCodeStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreWriteRejected ErrorCode = "STORE_WRITE_REJECTED"
	ErrCodeIdentityMissing    ErrorCode = "IDENTITY_MISSING"
	ErrCodePayloadInvalid     ErrorCode = "PAYLOAD_INVALID"

	// Identity collaborator (logged, never shown verbatim)
	ErrCodeIdentityUnavailable ErrorCode = "IDENTITY_UNAVAILABLE"
	ErrCodeIdentityTimeout     ErrorCode = "IDENTITY_TIMEOUT"

	// Side channels
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeBankInvalid            ErrorCode = "QUESTION_BANK_INVALID"

	// Programming errors, unreachable through the state machine
	ErrCodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Unwrap exposes the underlying cause so errors.Is keeps working on wrapped driver errors.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the same error with an extra metadata key set.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewStoreUnavailableError creates a retryable error for a store that could not be reached.
func NewStoreUnavailableError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   fmt.Sprintf("Could not reach the %s response store", backend),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreWriteRejectedError creates a retryable error for a write the store refused.
func NewStoreWriteRejectedError(backend, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteRejected,
		Message:   fmt.Sprintf("The %s response store rejected the submission", backend),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityMissingError is returned when a store is configured but no respondent identity exists.
func NewIdentityMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityMissing,
		Message:   "Not connected to the secure server",
		Details:   "no respondent identity has been issued",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadInvalidError creates a non-retryable schema validation error.
func NewPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadInvalid,
		Message:   "Survey payload failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIdentityUnavailableError wraps a failed anonymous sign-in.
func NewIdentityUnavailableError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityUnavailable,
		Message:   fmt.Sprintf("Identity provider '%s' error", provider),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewIdentityTimeoutError is returned when the bounded identity wait expires.
func NewIdentityTimeoutError(wait time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeIdentityTimeout,
		Message:   "Could not reach the secure server",
		Details:   fmt.Sprintf("no identity after %s", wait),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a notification error; callers only log it.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBankInvalidError reports a malformed question bank.
func NewBankInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBankInvalid,
		Message:   "Question bank is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvariantViolationError marks a programming error.
func NewInvariantViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvariantViolation,
		Message:   "Invariant violation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// As extracts a StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// IsRetryable checks if an error may be retried by the respondent.
func IsRetryable(err error) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Retryable
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE"):
		return "STORE"
	case strings.Contains(codeStr, "IDENTITY"):
		return "IDENTITY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "INVARIANT"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
