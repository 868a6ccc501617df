package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrCodeMissingSignature ErrorCode = "MISSING_SIGNATURE"

	// Payload errors
	ErrCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	ErrCodePayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedEvent ErrorCode = "UNSUPPORTED_EVENT"

	// Routing errors
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	// System errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// WebhookError is an error that knows how it should be surfaced to a webhook sender.
// Message is safe to return to the caller; Err carries internal detail for logs only.
type WebhookError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Err        error
}

func (e *WebhookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}

// New creates a new WebhookError
func New(code ErrorCode, message string) *WebhookError {
	return &WebhookError{
		Code:       code,
		Message:    message,
		StatusCode: getHTTPStatusCode(code),
	}
}

// Wrap wraps an existing error with a WebhookError
func Wrap(err error, code ErrorCode, message string) *WebhookError {
	e := New(code, message)
	e.Err = err
	return e
}

// getHTTPStatusCode maps error codes to HTTP status codes
func getHTTPStatusCode(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidSignature, ErrCodeMissingSignature:
		return http.StatusUnauthorized
	case ErrCodeInvalidPayload:
		return http.StatusBadRequest
	case ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeUnsupportedEvent:
		return http.StatusUnprocessableEntity
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus returns the status code for any error, 500 when it is not a WebhookError
func HTTPStatus(err error) int {
	var we *WebhookError
	if stderrors.As(err, &we) {
		return we.StatusCode
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the caller-facing message for any error
func PublicMessage(err error) string {
	var we *WebhookError
	if stderrors.As(err, &we) {
		return we.Message
	}
	return "Internal server error"
}

// Common error constructors
func InvalidSignature() *WebhookError {
	return New(ErrCodeInvalidSignature, "Invalid signature")
}

func MissingSignature() *WebhookError {
	return New(ErrCodeMissingSignature, "Missing signature")
}

func InvalidPayload(err error) *WebhookError {
	return Wrap(err, ErrCodeInvalidPayload, fmt.Sprintf("Invalid webhook payload: %v", err))
}

func PayloadTooLarge(limit int64) *WebhookError {
	return New(ErrCodePayloadTooLarge, fmt.Sprintf("Payload exceeds %d bytes", limit))
}

func Internal(err error) *WebhookError {
	return Wrap(err, ErrCodeInternal, "Internal server error")
}
