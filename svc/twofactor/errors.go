package twofactor

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotConfigured       = errors.New("two-factor authentication is not enabled")
	ErrAlreadyEnabled      = errors.New("two-factor authentication is already enabled")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	ErrLocked              = errors.New("too many failed attempts")
	ErrSessionInvalid      = errors.New("verification session is invalid or expired")
	ErrNotFound            = errors.New("two-factor record not found")
	ErrInvalidPrincipal    = errors.New("invalid principal")
	ErrUnknownKind         = errors.New("unknown principal kind")
	ErrInvalidSetup        = errors.New("invalid setup data")

	// ErrInternal hides crypto and storage failures from callers. Details are logged.
	ErrInternal = errors.New("internal error")
)

// LockedError is returned while a principal is locked out.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s, try again in %s", ErrLocked, humanizeDuration(e.Remaining))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// InvalidCodeError carries how many attempts remain before a lock.
type InvalidCodeError struct {
	RemainingAttempts int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("%s, %d attempts remaining", ErrInvalidCode, e.RemainingAttempts)
}

func (e *InvalidCodeError) Is(target error) bool {
	return target == ErrInvalidCode
}

// humanizeDuration rounds up to whole minutes, or seconds below one minute.
func humanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "a moment"
	}
	if d < time.Minute {
		secs := int((d + time.Second - 1) / time.Second)
		return plural(secs, "second")
	}
	mins := int((d + time.Minute - 1) / time.Minute)
	return plural(mins, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// isExpected reports whether err is one of the routine outcomes callers handle.
func isExpected(err error) bool {
	for _, target := range []error{
		ErrNotConfigured, ErrAlreadyEnabled, ErrInvalidCode, ErrInvalidRecoveryCode,
		ErrLocked, ErrSessionInvalid, ErrNotFound, ErrInvalidPrincipal, ErrUnknownKind,
		ErrInvalidSetup,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
