package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to panel callers.
const (
	CodeNotFound                = "NOT_FOUND"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeInvalidState            = "INVALID_STATE"
	CodeGatewayUnavailable      = "GATEWAY_UNAVAILABLE"
	CodeGatewayPermissionDenied = "GATEWAY_PERMISSION_DENIED"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeTimeout                 = "TIMEOUT"
	CodeInternal                = "INTERNAL_ERROR"
)

// Sentinels for errors.Is; any DomainError with the same Code matches.
var (
	ErrNotFound           = &DomainError{Code: CodeNotFound, Message: "not found", HTTPStatus: http.StatusNotFound}
	ErrInvalidArgument    = &DomainError{Code: CodeValidationFailed, Message: "invalid argument", HTTPStatus: http.StatusBadRequest}
	ErrInvalidState       = &DomainError{Code: CodeInvalidState, Message: "invalid state", HTTPStatus: http.StatusConflict}
	ErrGatewayUnavailable = &DomainError{Code: CodeGatewayUnavailable, Message: "chat gateway unavailable", HTTPStatus: http.StatusServiceUnavailable}
	ErrPermissionDenied   = &DomainError{Code: CodeGatewayPermissionDenied, Message: "chat gateway permission denied", HTTPStatus: http.StatusBadGateway}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidState, message, http.StatusConflict, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewGatewayUnavailable wraps a failed or timed-out chat platform call.
func NewGatewayUnavailable(op string, err error) error {
	return &DomainError{
		Code:       CodeGatewayUnavailable,
		Message:    fmt.Sprintf("chat gateway unavailable during %s", op),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewPermissionDenied wraps a chat platform call rejected for lack of permissions.
func NewPermissionDenied(op string, err error) error {
	return &DomainError{
		Code:       CodeGatewayPermissionDenied,
		Message:    fmt.Sprintf("chat gateway denied %s", op),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	// Chat platform deadlines are classified by the gateway decorator, so a
	// bare deadline here is a store or request timeout.
	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Code:       CodeTimeout,
			Message:    "operation timed out",
			HTTPStatus: http.StatusGatewayTimeout,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
