package twofactor

import (
	"context"
	"slices"
	"time"
)

// Credential is the persisted second-factor state of one principal.
// EncryptedSecret is set exactly when Enabled is true.
type Credential struct {
	Enabled            bool
	EncryptedSecret    string
	RecoveryCodeHashes []string
	VerifiedAt         *time.Time
	FailedAttempts     int
	LastFailedAt       *time.Time
	LockedUntil        *time.Time
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	out.RecoveryCodeHashes = slices.Clone(c.RecoveryCodeHashes)
	out.VerifiedAt = cloneTime(c.VerifiedAt)
	out.LastFailedAt = cloneTime(c.LastFailedAt)
	out.LockedUntil = cloneTime(c.LockedUntil)
	return &out
}

// enable replaces the credential with a freshly confirmed one.
func (c *Credential) enable(encryptedSecret string, hashes []string, now time.Time) {
	*c = Credential{
		Enabled:            true,
		EncryptedSecret:    encryptedSecret,
		RecoveryCodeHashes: hashes,
		VerifiedAt:         &now,
	}
}

// clear returns the credential to the not enabled state.
func (c *Credential) clear() {
	*c = Credential{}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// UpdateFunc mutates a credential inside a repository transaction.
// Returning an error aborts the update and nothing is written.
type UpdateFunc func(c *Credential) error

// Repository persists credentials for one principal kind.
type Repository interface {
	// Load returns the credential or ErrNotFound when no record exists.
	Load(ctx context.Context, principalID string) (*Credential, error)

	// Update atomically applies fn to the current credential and stores the
	// result. A principal without a record is passed a zero Credential; the
	// record is created only if fn succeeds. The stored value is returned.
	Update(ctx context.Context, principalID string, fn UpdateFunc) (*Credential, error)
}

// Repositories maps each principal kind to its storage.
type Repositories map[Kind]Repository

func (r Repositories) get(kind Kind) (Repository, error) {
	repo, ok := r[kind]
	if !ok || repo == nil {
		return nil, ErrUnknownKind
	}
	return repo, nil
}
