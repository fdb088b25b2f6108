package verification_test

import (
	"context"
	"testing"
	"time"

	"github.com/enrollhub/twofa/pkg/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := verification.NewMemoryStore(0)
	defer store.Close()

	now := time.Now()
	s := &verification.Session{Token: "t1", Subject: alice, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Create(ctx, s))

	s.Verified = true
	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, got.Verified, "store must copy on write")

	require.NoError(t, store.Update(ctx, s))
	got, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.Verified)

	assert.ErrorIs(t, store.Update(ctx, &verification.Session{Token: "missing"}), verification.ErrSessionNotFound)
	assert.ErrorIs(t, store.Create(ctx, &verification.Session{}), verification.ErrSessionInvalid)

	taken, err := store.Take(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", taken.Token)
	_, err = store.Take(ctx, "t1")
	assert.ErrorIs(t, err, verification.ErrSessionNotFound)
}

func TestMemoryStore_CleanupLoop(t *testing.T) {
	t.Parallel()

	store := verification.NewMemoryStore(10 * time.Millisecond)
	defer store.Close()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(context.Background(), &verification.Session{
		Token: "old", Subject: alice, CreatedAt: past, ExpiresAt: past.Add(time.Minute),
	}))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, store.Close())
}
