package verification

import (
	"context"
	"time"
)

// Store defines the interface for verification session persistence.
// Stores do not interpret expiry on reads; the Manager does.
type Store interface {
	// Create stores a new session
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Returns ErrSessionNotFound when absent.
	Get(ctx context.Context, token string) (*Session, error)

	// Update replaces an existing session. Returns ErrSessionNotFound when absent.
	Update(ctx context.Context, session *Session) error

	// Take atomically reads and deletes a session.
	Take(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token
	Delete(ctx context.Context, token string) error

	// DeleteBySubject removes every session bound to the subject
	DeleteBySubject(ctx context.Context, subject Subject) error

	// DeleteExpired removes sessions expired at now and returns how many were removed
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
