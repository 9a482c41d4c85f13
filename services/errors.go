package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means the referenced project, token, notification or
	// payment does not exist (or is not visible to the caller)
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized means the caller lacks rights for the operation
	ErrUnauthorized = errors.New("unauthorized: you don't have permission to perform this action")

	// ErrInvalidTransition rejects a project status edit that skips the lifecycle
	ErrInvalidTransition = errors.New("invalid project status transition")

	// ErrPaymentNotAllowed means no payment action is enabled for the project
	ErrPaymentNotAllowed = errors.New("no payment action is available for this project")

	// ErrEmailTaken is returned by Register for a duplicate email
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials hides which half of a login was wrong
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// TokenInvalidReason classifies why a feedback token cannot be used
type TokenInvalidReason string

const (
	TokenNotFound    TokenInvalidReason = "not_found"
	TokenAlreadyUsed TokenInvalidReason = "already_used"
	TokenExpired     TokenInvalidReason = "expired"
)

// TokenInvalidError is shown to anonymous submitters as-is. It is final:
// callers must not retry.
type TokenInvalidError struct {
	Reason TokenInvalidReason
}

func (e *TokenInvalidError) Error() string {
	return fmt.Sprintf("feedback token invalid: %s", e.Reason)
}

// Message is the user-facing text for the reason
func (e *TokenInvalidError) Message() string {
	switch e.Reason {
	case TokenAlreadyUsed:
		return "This feedback link has already been used."
	case TokenExpired:
		return "This feedback link has expired."
	default:
		return "This feedback link is not valid."
	}
}

// ValidationError rejects malformed input before anything is persisted
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsTokenInvalid unwraps err into a *TokenInvalidError
func IsTokenInvalid(err error) (*TokenInvalidError, bool) {
	var tie *TokenInvalidError
	ok := errors.As(err, &tie)
	return tie, ok
}

// notFound translates gorm's sentinel into ErrNotFound and leaves other
// errors wrapped with context
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
