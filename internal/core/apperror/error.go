// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every error that reaches the HTTP layer should be an AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal          = "INTERNAL_ERROR"
	CodeRemote            = "REMOTE_ERROR"
	CodeTimeout           = "TIMEOUT_ERROR"
	CodeReaderUnavailable = "READER_UNAVAILABLE"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule          = "BUSINESS_RULE_VIOLATION"
	CodeDocumentSubmitted     = "DOCUMENT_ALREADY_SUBMITTED"
	CodeDocumentNotSubmitted  = "DOCUMENT_NOT_SUBMITTED"
	CodeDocumentNotTagTracked = "DOCUMENT_NOT_TAG_TRACKED"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeReaderBusy = "READER_BUSY"
)

// AppError is the standard error type of the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, remote status, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidInput is returned for request bodies that cannot be decoded (400)
func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewDocumentSubmitted is returned when a non-draft document is edited or submitted again.
func NewDocumentSubmitted(doctype, name string) *AppError {
	return NewBusinessRule(CodeDocumentSubmitted, "Document is not a draft").
		WithDetail("doctype", doctype).
		WithDetail("name", name)
}

// NewDocumentNotSubmitted is returned when a follow-up document is requested from a draft.
func NewDocumentNotSubmitted(doctype, name string) *AppError {
	return NewBusinessRule(CodeDocumentNotSubmitted, "Document must be submitted first").
		WithDetail("doctype", doctype).
		WithDetail("name", name)
}

// NewNotTagTracked is returned when tag operations target a document without tag tracking.
func NewNotTagTracked(doctype string) *AppError {
	return NewBusinessRule(CodeDocumentNotTagTracked, "Document does not track RFID tags").
		WithDetail("doctype", doctype)
}

// NewRemote wraps a failed call to the ERP service (502).
func NewRemote(status int, message string) *AppError {
	return &AppError{
		Code:       CodeRemote,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"remote_status": status},
	}
}

// NewReaderUnavailable is returned by RFID operations in degraded (no-scan) mode (503).
func NewReaderUnavailable(err error) *AppError {
	return &AppError{
		Code:       CodeReaderUnavailable,
		Message:    "RFID reader is not available",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewReaderBusy is returned when continuous reading belongs to another session (409).
func NewReaderBusy(owner string) *AppError {
	return &AppError{
		Code:       CodeReaderBusy,
		Message:    "RFID reader is in use by another session",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"owner_session": owner},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation checks if error is CodeValidation
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
