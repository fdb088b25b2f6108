package audit

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStorage keeps events in process memory. Suitable for tests and
// single-instance deployments.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStorage creates an empty in-memory event store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a single event.
func (m *MemoryStorage) Store(_ context.Context, event Event) error {
	m.mu.Lock()
	m.events = append(m.events, cloneEvent(event))
	m.mu.Unlock()
	return nil
}

// StoreBatch appends events in order.
func (m *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	m.mu.Lock()
	for _, e := range events {
		m.events = append(m.events, cloneEvent(e))
	}
	m.mu.Unlock()
	return nil
}

// Query returns matching events newest first. Events with equal timestamps
// keep reverse insertion order.
func (m *MemoryStorage) Query(ctx context.Context, criteria Criteria) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Event, 0)
	for i := len(m.events) - 1; i >= 0; i-- {
		if criteria.Matches(m.events[i]) {
			result = append(result, cloneEvent(m.events[i]))
		}
	}

	slices.SortStableFunc(result, func(a, b Event) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if criteria.Limit > 0 && len(result) > criteria.Limit {
		result = result[:criteria.Limit]
	}
	return result, nil
}

// Len returns the number of stored events.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func cloneEvent(e Event) Event {
	e.Metadata = maps.Clone(e.Metadata)
	return e
}
