package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Manager issues and resolves verification sessions on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithClock sets the time source used for issuing and checking sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a session manager. It panics if store is nil.
func NewManager(store Store, opts ...Option) *Manager {
	if store == nil {
		panic("verification: store cannot be nil")
	}

	m := &Manager{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the fixed session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create issues a new pending session for subject.
func (m *Manager) Create(ctx context.Context, subject Subject) (*Session, error) {
	if !subject.Valid() {
		return nil, ErrInvalidSubject
	}

	token, err := generateToken()
	if err != nil {
		return nil, errors.Join(ErrTokenGeneration, err)
	}

	now := m.now().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		Token:     token,
		Subject:   subject,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Peek returns the subject of a pending session. Expired sessions are
// deleted when observed.
func (m *Manager) Peek(ctx context.Context, token string) (Subject, error) {
	session, err := m.load(ctx, token)
	if err != nil {
		return Subject{}, err
	}
	if !session.Pending(m.now()) {
		return Subject{}, ErrSessionInvalid
	}
	return session.Subject, nil
}

// MarkVerified flips the session to verified. Repeated calls on a verified,
// unexpired session succeed.
func (m *Manager) MarkVerified(ctx context.Context, token string) error {
	session, err := m.load(ctx, token)
	if err != nil {
		return err
	}
	if session.Verified {
		return nil
	}

	session.Verified = true
	if err := m.store.Update(ctx, session); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionInvalid
		}
		return err
	}
	return nil
}

// Consume exchanges a verified session for its subject exactly once.
// Pending sessions are left untouched.
func (m *Manager) Consume(ctx context.Context, token string) (Subject, error) {
	session, err := m.load(ctx, token)
	if err != nil {
		return Subject{}, err
	}
	if !session.Verified {
		return Subject{}, ErrSessionInvalid
	}

	taken, err := m.store.Take(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Subject{}, ErrSessionInvalid
		}
		return Subject{}, err
	}
	if !taken.Verified || taken.IsExpired(m.now()) {
		return Subject{}, ErrSessionInvalid
	}
	return taken.Subject, nil
}

// PurgeAll deletes every session bound to subject.
func (m *Manager) PurgeAll(ctx context.Context, subject Subject) error {
	if !subject.Valid() {
		return ErrInvalidSubject
	}
	return m.store.DeleteBySubject(ctx, subject)
}

// Sweep removes expired sessions and reports how many were deleted.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// load fetches an unexpired session, collapsing missing and expired rows
// into ErrSessionInvalid.
func (m *Manager) load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if session.IsExpired(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrSessionInvalid
	}
	return session, nil
}
