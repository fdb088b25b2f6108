package verification

import "errors"

var (
	// ErrSessionInvalid covers missing, expired and already verified sessions.
	// Callers cannot tell these cases apart.
	ErrSessionInvalid = errors.New("verification.session_invalid")

	// ErrSessionNotFound is returned by stores when no row exists for a token.
	ErrSessionNotFound = errors.New("verification.session_not_found")

	// ErrInvalidSubject indicates an empty subject kind or id
	ErrInvalidSubject = errors.New("verification.invalid_subject")

	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("verification.token_generation_failed")
)
