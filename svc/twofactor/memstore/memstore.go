// Package memstore keeps two-factor credentials in process memory.
// It backs tests and single-instance development setups.
package memstore

import (
	"context"
	"sync"

	"github.com/enrollhub/twofa/svc/twofactor"
)

// Repository is a mutex-guarded map of credentials for one principal kind.
type Repository struct {
	mu    sync.Mutex
	creds map[string]*twofactor.Credential
}

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{creds: make(map[string]*twofactor.Credential)}
}

// NewRepositories returns a fresh repository for every principal kind.
func NewRepositories() twofactor.Repositories {
	repos := make(twofactor.Repositories, len(twofactor.Kinds))
	for _, kind := range twofactor.Kinds {
		repos[kind] = NewRepository()
	}
	return repos
}

func (r *Repository) Load(ctx context.Context, principalID string) (*twofactor.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.creds[principalID]
	if !ok {
		return nil, twofactor.ErrNotFound
	}
	return cred.Clone(), nil
}

// Update holds the repository lock for the duration of fn, so concurrent
// updates of the same principal never lose writes.
func (r *Repository) Update(ctx context.Context, principalID string, fn twofactor.UpdateFunc) (*twofactor.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	working := &twofactor.Credential{}
	if cred, ok := r.creds[principalID]; ok {
		working = cred.Clone()
	}

	if err := fn(working); err != nil {
		return nil, err
	}

	r.creds[principalID] = working.Clone()
	return working, nil
}

// Put stores a credential directly. Intended for seeding tests.
func (r *Repository) Put(principalID string, cred *twofactor.Credential) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[principalID] = cred.Clone()
}
