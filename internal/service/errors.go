package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyReviewed    = errors.New("listing already reviewed by this account")

	// ErrAccountNotFound means a reset token pointed at an account that no
	// longer exists. It is an internal failure, not a client error.
	ErrAccountNotFound = errors.New("account for reset token not found")

	// ErrResetTokenInvalid is the single client-facing reset token failure.
	// The specific reasons below wrap it.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	ErrTokenNotFound     = fmt.Errorf("reset token not found: %w", ErrResetTokenInvalid)
	ErrTokenExpired      = fmt.Errorf("reset token expired: %w", ErrResetTokenInvalid)
	ErrTokenAlreadyUsed  = fmt.Errorf("reset token already used: %w", ErrResetTokenInvalid)
)

// resetRejectionReason labels a reset token failure for logs and metrics
func resetRejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return "rejected_not_found"
	case errors.Is(err, ErrTokenExpired):
		return "rejected_expired"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "rejected_used"
	default:
		return "error"
	}
}
