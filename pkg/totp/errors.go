package totp

import "errors"

var (
	ErrFailedToGenerateSecretKey    = errors.New("failed to generate TOTP secret key")
	ErrFailedToGenerateTOTP         = errors.New("failed to generate TOTP")
	ErrMissingAccountName           = errors.New("missing account name")
	ErrMissingIssuer                = errors.New("missing issuer")
	ErrInvalidSecret                = errors.New("invalid secret")
	ErrInvalidRecoveryCodeCount     = errors.New("invalid recovery code count, must be greater than 0")
	ErrFailedToGenerateRecoveryCode = errors.New("failed to generate recovery code")
	ErrFailedToHashRecoveryCode     = errors.New("failed to hash recovery code")
)
