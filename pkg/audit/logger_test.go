package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/enrollhub/twofa/pkg/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, event audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockStorage) Query(ctx context.Context, criteria audit.Criteria) ([]audit.Event, error) {
	args := m.Called(ctx, criteria)
	events, _ := args.Get(0).([]audit.Event)
	return events, args.Error(1)
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		audit.NewLogger(nil)
	})
}

func TestLogger_Log(t *testing.T) {
	t.Parallel()

	t.Run("stores success event", func(t *testing.T) {
		t.Parallel()
		storage := &MockStorage{}
		storage.On("Store", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
			return e.Action == "two_factor.enabled" &&
				e.Result == audit.ResultSuccess &&
				e.ActorKind == "user" &&
				e.ActorID == "u-1" &&
				e.IP == "10.0.0.1" &&
				e.ID != "" &&
				e.CreatedAt.Equal(fixedNow)
		})).Return(nil).Once()

		logger := audit.NewLogger(storage,
			audit.WithClock(func() time.Time { return fixedNow }),
			audit.WithIPExtractor(func(context.Context) (string, bool) { return "10.0.0.1", true }),
		)

		err := logger.Log(context.Background(), "two_factor.enabled", audit.WithActor("user", "u-1"))
		require.NoError(t, err)
		storage.AssertExpectations(t)
	})

	t.Run("explicit options override context values", func(t *testing.T) {
		t.Parallel()
		store := audit.NewMemoryStorage()
		logger := audit.NewLogger(store,
			audit.WithUserAgentExtractor(func(context.Context) (string, bool) { return "ctx-agent", true }),
		)

		err := logger.Log(context.Background(), "login",
			audit.WithActor("user", "u-1"),
			audit.WithUserAgent("explicit-agent"),
			audit.WithUserAgent(""),
		)
		require.NoError(t, err)

		events, err := store.Query(context.Background(), audit.Criteria{})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "explicit-agent", events[0].UserAgent)
	})

	t.Run("rejects event without actor", func(t *testing.T) {
		t.Parallel()
		storage := &MockStorage{}
		logger := audit.NewLogger(storage)

		err := logger.Log(context.Background(), "two_factor.enabled")
		assert.ErrorIs(t, err, audit.ErrEventValidation)
		storage.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})

	t.Run("propagates storage error", func(t *testing.T) {
		t.Parallel()
		storage := &MockStorage{}
		storage.On("Store", mock.Anything, mock.Anything).Return(audit.ErrStorageNotAvailable)
		logger := audit.NewLogger(storage)

		err := logger.Log(context.Background(), "x", audit.WithActor("user", "u-1"))
		assert.ErrorIs(t, err, audit.ErrStorageNotAvailable)
	})
}

func TestLogger_LogError(t *testing.T) {
	t.Parallel()

	store := audit.NewMemoryStorage()
	logger := audit.NewLogger(store)

	err := logger.LogError(context.Background(), "two_factor.failed", errors.New("invalid code"),
		audit.WithActor("user", "u-1"),
		audit.WithResult(audit.ResultFailure),
		audit.WithMetadata("code", "123456"),
		audit.WithMetadata("reason", "invalid code"),
	)
	require.NoError(t, err)

	events, err := store.Query(context.Background(), audit.Criteria{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, audit.ResultFailure, e.Result)
	assert.Equal(t, "invalid code", e.Error)
	assert.Equal(t, "invalid code", e.Metadata["reason"])
	assert.NotContains(t, e.Metadata, "code")
}

func TestReader_Find(t *testing.T) {
	t.Parallel()

	t.Run("applies default limit", func(t *testing.T) {
		t.Parallel()
		storage := &MockStorage{}
		storage.On("Query", mock.Anything, audit.Criteria{ActorID: "u-1", Limit: audit.DefaultQueryLimit}).
			Return([]audit.Event{{ID: "1"}}, nil).Once()

		events, err := audit.NewReader(storage).Find(context.Background(), audit.Criteria{ActorID: "u-1"})
		require.NoError(t, err)
		assert.Len(t, events, 1)
		storage.AssertExpectations(t)
	})

	t.Run("panics with nil storage", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { audit.NewReader(nil) })
	})
}
