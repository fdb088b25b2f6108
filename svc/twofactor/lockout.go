package twofactor

import "time"

const (
	// MaxFailedAttempts is the number of consecutive wrong codes that locks a principal.
	MaxFailedAttempts = 5

	// LockoutDuration is how long a lock lasts. Locks expire by time, no unlock write is needed.
	LockoutDuration = 15 * time.Minute
)

// CheckLocked returns a *LockedError while c is locked at now.
func CheckLocked(c *Credential, now time.Time) error {
	if !IsLocked(c, now) {
		return nil
	}
	return &LockedError{Until: *c.LockedUntil, Remaining: c.LockedUntil.Sub(now)}
}

// IsLocked reports whether the lock on c is still active at now.
func IsLocked(c *Credential, now time.Time) bool {
	return c.LockedUntil != nil && now.Before(*c.LockedUntil)
}

// RegisterFailure counts a wrong code and reports whether it locked the
// principal. A lock that has already run out starts a fresh count.
func RegisterFailure(c *Credential, now time.Time) (locked bool) {
	if c.LockedUntil != nil && !now.Before(*c.LockedUntil) {
		c.FailedAttempts = 0
		c.LockedUntil = nil
	}

	c.FailedAttempts++
	c.LastFailedAt = &now

	if c.FailedAttempts >= MaxFailedAttempts {
		until := now.Add(LockoutDuration)
		c.LockedUntil = &until
		return true
	}
	return false
}

// RegisterSuccess clears all failure state.
func RegisterSuccess(c *Credential) {
	c.FailedAttempts = 0
	c.LastFailedAt = nil
	c.LockedUntil = nil
}

// RemainingAttempts returns how many wrong codes are left before a lock.
func RemainingAttempts(c *Credential) int {
	return max(MaxFailedAttempts-c.FailedAttempts, 0)
}
