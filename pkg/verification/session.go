package verification

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// DefaultTTL is the lifetime of a pending verification session.
// Sessions are never extended.
const DefaultTTL = 5 * time.Minute

const tokenBytes = 32

// Subject identifies the principal a session is bound to.
type Subject struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Valid reports whether both parts are set.
func (s Subject) Valid() bool {
	return s.Kind != "" && s.ID != ""
}

func (s Subject) String() string {
	return s.Kind + ":" + s.ID
}

// Session binds a completed primary-credential check to a pending
// second-factor check.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Subject   Subject   `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Pending reports whether the session may still be used for a verification attempt.
func (s *Session) Pending(now time.Time) bool {
	return !s.Verified && !s.IsExpired(now)
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
