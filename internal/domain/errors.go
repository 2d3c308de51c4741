package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and a
// user-presentable message
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so wrapped errors compare equal to their sentinel
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

var (
	// Credential errors
	ErrInvalidCredentials = &DomainError{
		Code:    "AUTH_INVALID_CREDENTIALS",
		Message: "Invalid email or password",
	}
	ErrEmailTaken = &DomainError{
		Code:    "AUTH_EMAIL_TAKEN",
		Message: "An account with this email already exists",
	}

	// Session errors
	ErrSessionExpired = &DomainError{
		Code:    "SESSION_EXPIRED",
		Message: "Your session has expired",
	}
	ErrSessionNotFound = &DomainError{
		Code:    "SESSION_NOT_FOUND",
		Message: "No active session",
	}
	ErrSignOutFailed = &DomainError{
		Code:    "SIGN_OUT_FAILED",
		Message: "Sign out failed. Please try again",
	}

	// Provider errors
	ErrProviderUnavailable = &DomainError{
		Code:    "PROVIDER_UNAVAILABLE",
		Message: "Authentication service is unavailable. Please try again later",
	}
	ErrFederatedNotConfigured = &DomainError{
		Code:    "FEDERATED_NOT_CONFIGURED",
		Message: "Federated sign-in is not configured",
	}
	ErrTokenInvalid = &DomainError{
		Code:    "TOKEN_INVALID",
		Message: "Authentication token could not be verified",
	}

	// Validation errors
	ErrValidationFailed = &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "Validation failed",
	}
)

// WrapInvalidCredentials wraps a provider rejection as an invalid credentials error
func WrapInvalidCredentials(cause error) error {
	return &DomainError{
		Code:    ErrInvalidCredentials.Code,
		Message: ErrInvalidCredentials.Message,
		Cause:   cause,
	}
}

// WrapEmailTaken wraps a provider conflict as an email taken error
func WrapEmailTaken(email string, cause error) error {
	return &DomainError{
		Code:    ErrEmailTaken.Code,
		Message: ErrEmailTaken.Message,
		Cause:   fmt.Errorf("email %s: %w", email, cause),
	}
}

// WrapProviderUnavailable wraps a transport or provider-side failure
func WrapProviderUnavailable(cause error) error {
	return &DomainError{
		Code:    ErrProviderUnavailable.Code,
		Message: ErrProviderUnavailable.Message,
		Cause:   cause,
	}
}

// WrapSignOutFailed wraps a failed provider sign-out
func WrapSignOutFailed(cause error) error {
	return &DomainError{
		Code:    ErrSignOutFailed.Code,
		Message: ErrSignOutFailed.Message,
		Cause:   cause,
	}
}

// WrapTokenInvalid wraps an ID token verification failure
func WrapTokenInvalid(cause error) error {
	return &DomainError{
		Code:    ErrTokenInvalid.Code,
		Message: ErrTokenInvalid.Message,
		Cause:   cause,
	}
}

// UserMessage extracts the user-presentable message from an error.
// Non-domain errors collapse to a generic message so internals never leak to the page.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "Something went wrong. Please try again"
}
