// Package pgstore persists two-factor credentials and audit events in PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhub/twofa/pkg/pg"
	"github.com/enrollhub/twofa/svc/twofactor"
)

// Each principal kind keeps credentials in its own table.
var credentialTables = map[twofactor.Kind]string{
	twofactor.KindUser:                 "user_two_factor",
	twofactor.KindOrganizationEmployee: "organization_employee_two_factor",
}

const credentialColumns = `enabled, encrypted_secret, recovery_code_hashes, verified_at,
	failed_attempts, last_failed_at, locked_until`

// Repository stores credentials of one principal kind.
type Repository struct {
	pool  *pgxpool.Pool
	table string
}

// NewRepository returns the repository for kind.
func NewRepository(pool *pgxpool.Pool, kind twofactor.Kind) (*Repository, error) {
	if pool == nil {
		return nil, ErrNoPool
	}
	table, ok := credentialTables[kind]
	if !ok {
		return nil, twofactor.ErrUnknownKind
	}
	return &Repository{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

// NewRepositories wires a repository for every principal kind.
func NewRepositories(pool *pgxpool.Pool) (twofactor.Repositories, error) {
	repos := make(twofactor.Repositories, len(credentialTables))
	for kind := range credentialTables {
		repo, err := NewRepository(pool, kind)
		if err != nil {
			return nil, err
		}
		repos[kind] = repo
	}
	return repos, nil
}

func (r *Repository) Load(ctx context.Context, principalID string) (*twofactor.Credential, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE principal_id = $1`, credentialColumns, r.table)

	cred, err := scanCredential(r.pool.QueryRow(ctx, query, principalID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, twofactor.ErrNotFound
		}
		return nil, fmt.Errorf("load %s: %w", r.table, err)
	}
	return cred, nil
}

// Update locks the row with SELECT ... FOR UPDATE for the duration of fn.
func (r *Repository) Update(ctx context.Context, principalID string, fn twofactor.UpdateFunc) (*twofactor.Credential, error) {
	var result *twofactor.Credential

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`SELECT %s FROM %s WHERE principal_id = $1 FOR UPDATE`, credentialColumns, r.table)

		exists := true
		cred, err := scanCredential(tx.QueryRow(ctx, query, principalID))
		if err != nil {
			if !pg.IsNotFoundError(err) {
				return fmt.Errorf("lock %s: %w", r.table, err)
			}
			exists = false
			cred = &twofactor.Credential{}
		}

		if err := fn(cred); err != nil {
			return err
		}

		if exists {
			err = r.update(ctx, tx, principalID, cred)
		} else {
			err = r.insert(ctx, tx, principalID, cred)
		}
		if err != nil {
			return err
		}

		result = cred
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) insert(ctx context.Context, tx pgx.Tx, principalID string, c *twofactor.Credential) error {
	query := fmt.Sprintf(`INSERT INTO %s (principal_id, %s, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`, r.table, credentialColumns)

	if _, err := tx.Exec(ctx, query, append([]any{principalID}, credentialArgs(c)...)...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table, err)
	}
	return nil
}

func (r *Repository) update(ctx context.Context, tx pgx.Tx, principalID string, c *twofactor.Credential) error {
	query := fmt.Sprintf(`UPDATE %s SET
		enabled = $2, encrypted_secret = $3, recovery_code_hashes = $4, verified_at = $5,
		failed_attempts = $6, last_failed_at = $7, locked_until = $8, updated_at = now()
		WHERE principal_id = $1`, r.table)

	if _, err := tx.Exec(ctx, query, append([]any{principalID}, credentialArgs(c)...)...); err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return nil
}

func credentialArgs(c *twofactor.Credential) []any {
	var secret *string
	if c.EncryptedSecret != "" {
		secret = &c.EncryptedSecret
	}
	hashes := c.RecoveryCodeHashes
	if hashes == nil {
		hashes = []string{}
	}
	return []any{c.Enabled, secret, hashes, c.VerifiedAt, c.FailedAttempts, c.LastFailedAt, c.LockedUntil}
}

func scanCredential(row pgx.Row) (*twofactor.Credential, error) {
	var (
		c      twofactor.Credential
		secret *string
	)
	err := row.Scan(&c.Enabled, &secret, &c.RecoveryCodeHashes, &c.VerifiedAt,
		&c.FailedAttempts, &c.LastFailedAt, &c.LockedUntil)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		c.EncryptedSecret = *secret
	}
	c.VerifiedAt = utc(c.VerifiedAt)
	c.LastFailedAt = utc(c.LastFailedAt)
	c.LockedUntil = utc(c.LockedUntil)
	return &c, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// ErrNoPool is returned by constructors given a nil pool.
var ErrNoPool = errors.New("pgstore: pool is nil")
