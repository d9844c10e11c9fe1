package llm

import (
	"errors"
	"time"
)

// ErrorType is the category discriminator of an Error. The set below is
// non-exhaustive by design: RateLimit and RequestTooLarge are provider-facing
// refinements of Provider and Validation respectively, kept distinct because
// callers commonly want to branch on them directly.
type ErrorType string

const (
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeProvider      ErrorType = "provider"
	ErrorTypeSerialization ErrorType = "serialization"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeToolExecution ErrorType = "tool_execution"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeCanceled      ErrorType = "canceled"

	// Refinements, classified under Provider/Validation for retry purposes.
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeRequestTooLarge ErrorType = "request_too_large"
)

// Error is the provider-neutral error type every adapter, middleware layer,
// and the client facade return. It carries a stable kind discriminator,
// a human-readable message, a retryability verdict, and the wrapped cause.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool
	RetryAfter *time.Duration
	StatusCode int
	ToolName   string // set for ErrorTypeToolExecution
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRateLimitError reports whether err is a rate-limit Error.
func IsRateLimitError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeRateLimit
}

// IsRequestTooLargeError reports whether err is a request-too-large Error.
func IsRequestTooLargeError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeRequestTooLarge
}

// IsRetryableError reports whether err is an Error marked retryable.
func IsRetryableError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// ExtractRetryAfter returns the retry-after duration carried by err, if any.
func ExtractRetryAfter(err error) *time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return nil
}

// NewNetworkError builds a Network error: transport failure before any
// response was received. Always retryable.
func NewNetworkError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: message, Retryable: true, Cause: cause}
}

// NewProviderError builds a Provider error: the backend returned an error
// envelope. Never retryable; use NewRetryableProviderError or
// NewRateLimitError for transient failures.
func NewProviderError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeProvider, Message: message, Retryable: false, Cause: cause}
}

// NewRetryableProviderError builds a Provider error known to be transient
// (HTTP 5xx, or 429 without a parseable Retry-After).
func NewRetryableProviderError(message string, statusCode int, cause error) *Error {
	return &Error{Type: ErrorTypeProvider, Message: message, Retryable: true, StatusCode: statusCode, Cause: cause}
}

// NewRateLimitError builds a rate-limit-classified Provider error.
func NewRateLimitError(message string, retryAfter *time.Duration, cause error) *Error {
	return &Error{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		Retryable:  true,
		RetryAfter: retryAfter,
		StatusCode: 429,
		Cause:      cause,
	}
}

// NewRequestTooLargeError builds a request-too-large-classified Validation
// error. Not retryable: resending the same request will fail the same way.
func NewRequestTooLargeError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeRequestTooLarge, Message: message, Retryable: false, StatusCode: 413, Cause: cause}
}

// NewSerializationError builds a Serialization error: malformed payload in
// either direction. Never retryable.
func NewSerializationError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeSerialization, Message: message, Retryable: false, Cause: cause}
}

// NewValidationError builds a Validation error: a local constraint was
// violated (bad schema, unsupported content, context overflow). Never
// retryable.
func NewValidationError(message string) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message, Retryable: false}
}

// NewToolExecutionError builds a ToolExecution error for a failed handler.
func NewToolExecutionError(name, message string, cause error) *Error {
	return &Error{Type: ErrorTypeToolExecution, Message: message, ToolName: name, Cause: cause}
}

// NewTimeoutError builds a Timeout error: per-attempt or overall deadline
// exceeded. Retryable — a fresh attempt may still land within budget.
func NewTimeoutError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeTimeout, Message: message, Retryable: true, Cause: cause}
}

// NewNotFoundError builds a NotFound error: a state-store lookup missed.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrorTypeNotFound, Message: message, Retryable: false}
}

// NewCanceledError builds a Canceled error: the caller canceled the call.
func NewCanceledError(message string, cause error) *Error {
	return &Error{Type: ErrorTypeCanceled, Message: message, Retryable: false, Cause: cause}
}
