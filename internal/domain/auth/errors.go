package auth

import "perfeval/internal/platform/apperr"

var (
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid_credentials", "invalid credentials")
	ErrMFARequired        = apperr.Unauthenticated("mfa_required", "mfa code required")
	ErrMFAInvalid         = apperr.Unauthenticated("mfa_invalid", "invalid mfa code")
	ErrMFANotInitialized  = apperr.New(apperr.ErrValidation, "mfa_not_initialized", "mfa setup has not been started")
)
