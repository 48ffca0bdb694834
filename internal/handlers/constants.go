package handlers

const (
	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20

	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyReviewed    = "ALREADY_REVIEWED"
	CodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"

	ErrInternalServerError = "Internal server error"
	ErrInvalidResetToken   = "Invalid or expired reset token"
	ErrTooManyRequests     = "Too many requests, please try again later"

	// MsgResetRequested is returned for every forgot-password request with an
	// email, whether or not an account exists
	MsgResetRequested = "If the email is registered, a password reset link has been sent"
)
