package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification surfaced to the UI layer.
type ErrorCode string

const (
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeNetwork            ErrorCode = "NETWORK_ERROR"
	ErrCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"
	ErrCodePlanInactive       ErrorCode = "PLAN_INACTIVE"
	ErrCodeStorageCorrupt     ErrorCode = "STORAGE_CORRUPT"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Silent reports whether the error should send the user back to the login
// entry point without a notification.
func (e *Error) Silent() bool {
	if e == nil {
		return false
	}
	return e.Code == ErrCodeSessionExpired || e.Code == ErrCodeStorageCorrupt
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrInvalidCredentials = NewError(ErrCodeInvalidCredentials, "invalid email or password")
	ErrNetwork            = NewError(ErrCodeNetwork, "network error, please try again")
	ErrSessionExpired     = NewError(ErrCodeSessionExpired, "session expired")
	ErrPlanInactive       = NewError(ErrCodePlanInactive, "organization plan is not active")
	ErrNoActivePlan       = NewError(ErrCodePlanInactive, "no organization with an active plan")
	ErrStorageCorrupt     = NewError(ErrCodeStorageCorrupt, "stored session is unreadable")
	ErrNotAuthenticated   = NewError(ErrCodeSessionExpired, "not signed in")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Classify maps any error onto the taxonomy. Unknown failures are reported as
// network errors since every remaining I/O path is a remote call.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr
	}
	return WrapError(ErrCodeNetwork, ErrNetwork.Message, err)
}
