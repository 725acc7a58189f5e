package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes surfaced to API callers and checked by the breach
// sweep. Callers can branch on these instead of matching message text.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL_ERROR"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeMaxEscalationLevel  = "MAX_ESCALATION_LEVEL"
	CodePolicyNotConfigured = "POLICY_NOT_CONFIGURED"
	CodeNotificationFailed  = "NOTIFICATION_DISPATCH_FAILED"
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
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewInvalidTransition reports a status change that the state machine does
// not allow from the current state.
func NewInvalidTransition(from, to string) error {
	return NewDomainError(
		CodeInvalidTransition,
		fmt.Sprintf("transition from %s to %s not allowed", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to},
	)
}

// NewMaxEscalationLevel reports an escalation attempt beyond the last rung
// of the department ladder.
func NewMaxEscalationLevel(level, max int) error {
	return NewDomainError(
		CodeMaxEscalationLevel,
		"maximum escalation level reached",
		http.StatusConflict,
		map[string]any{"current_level": level, "max_level": max},
	)
}

// NewPolicyNotConfigured reports a department without a resolvable SLA
// policy. Callers are expected to fall back to the default policy.
func NewPolicyNotConfigured(departmentID string) error {
	return NewDomainError(
		CodePolicyNotConfigured,
		fmt.Sprintf("no SLA policy configured for department %s", departmentID),
		http.StatusUnprocessableEntity,
		map[string]any{"department_id": departmentID},
	)
}

// NewNotificationDispatchFailed reports a failed delivery attempt on a
// notification channel. Delivery is best-effort: this error is logged by the
// notification layer and never propagated to the operation that triggered it.
func NewNotificationDispatchFailed(channel string, err error) error {
	return &DomainError{
		Code:       CodeNotificationFailed,
		Message:    fmt.Sprintf("notification dispatch via %s failed", channel),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"channel": channel},
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

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
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
