package pgstore_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/enrollhub/twofa/pkg/audit"
	"github.com/enrollhub/twofa/pkg/pg"
	"github.com/enrollhub/twofa/svc/twofactor"
	"github.com/enrollhub/twofa/svc/twofactor/pgstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only when TEST_PG_CONN_URL points at a disposable database.
func setupPool(t *testing.T) pg.Config {
	t.Helper()
	url := os.Getenv("TEST_PG_CONN_URL")
	if url == "" {
		t.Skip("TEST_PG_CONN_URL not set")
	}
	return pg.Config{
		ConnectionString: url,
		MaxOpenConns:     10,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		MigrationsTable:  "schema_migrations",
	}
}

func TestRepository_Integration(t *testing.T) {
	cfg := setupPool(t)
	ctx := context.Background()

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))

	repos, err := pgstore.NewRepositories(pool)
	require.NoError(t, err)
	repo := repos[twofactor.KindUser]
	id := uuid.NewString()

	_, err = repo.Load(ctx, id)
	assert.ErrorIs(t, err, twofactor.ErrNotFound)

	abort := errors.New("abort")
	_, err = repo.Update(ctx, id, func(c *twofactor.Credential) error { return abort })
	assert.ErrorIs(t, err, abort)
	_, err = repo.Load(ctx, id)
	assert.ErrorIs(t, err, twofactor.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	_, err = repo.Update(ctx, id, func(c *twofactor.Credential) error {
		c.Enabled = true
		c.EncryptedSecret = "ciphertext"
		c.RecoveryCodeHashes = []string{"h1", "h2"}
		c.VerifiedAt = &now
		return nil
	})
	require.NoError(t, err)

	cred, err := repo.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, cred.Enabled)
	assert.Equal(t, "ciphertext", cred.EncryptedSecret)
	assert.Equal(t, []string{"h1", "h2"}, cred.RecoveryCodeHashes)
	require.NotNil(t, cred.VerifiedAt)
	assert.True(t, now.Equal(*cred.VerifiedAt))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, id, func(c *twofactor.Credential) error {
				c.FailedAttempts++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cred, err = repo.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, cred.FailedAttempts)

	_, err = repos[twofactor.KindOrganizationEmployee].Load(ctx, id)
	assert.ErrorIs(t, err, twofactor.ErrNotFound)

	_, err = repo.Update(ctx, id, func(c *twofactor.Credential) error {
		*c = twofactor.Credential{}
		return nil
	})
	require.NoError(t, err)
	cred, err = repo.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, cred.Enabled)
	assert.Empty(t, cred.EncryptedSecret)
}

func TestAuditStorage_Integration(t *testing.T) {
	cfg := setupPool(t)
	ctx := context.Background()

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))

	store, err := pgstore.NewAuditStorage(pool)
	require.NoError(t, err)

	actor := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.StoreBatch(ctx, []audit.Event{
		{ID: uuid.NewString(), ActorKind: "user", ActorID: actor, Action: "two_factor.enabled", Result: audit.ResultSuccess, CreatedAt: base},
		{ID: uuid.NewString(), ActorKind: "user", ActorID: actor, Action: "two_factor.failed", Result: audit.ResultFailure,
			Error: "invalid verification code", IP: "10.0.0.1", Metadata: map[string]any{"attempts": 1}, CreatedAt: base.Add(time.Second)},
	}))

	events, err := store.Query(ctx, audit.Criteria{ActorKind: "user", ActorID: actor})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "two_factor.failed", events[0].Action)
	assert.Equal(t, "10.0.0.1", events[0].IP)
	assert.EqualValues(t, 1, events[0].Metadata["attempts"])
	assert.Equal(t, "two_factor.enabled", events[1].Action)

	events, err = store.Query(ctx, audit.Criteria{ActorID: actor, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestConstructors(t *testing.T) {
	t.Parallel()

	_, err := pgstore.NewRepository(nil, twofactor.KindUser)
	assert.ErrorIs(t, err, pgstore.ErrNoPool)
	_, err = pgstore.NewAuditStorage(nil)
	assert.ErrorIs(t, err, pgstore.ErrNoPool)
	_, err = pgstore.NewRepositories(nil)
	assert.ErrorIs(t, err, pgstore.ErrNoPool)
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	entries, err := fsReadDir(pgstore.Migrations())
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_two_factor_credentials.sql", "00002_two_factor_audit_events.sql"}, entries)
}

func fsReadDir(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
