package audit

import "context"

// DefaultQueryLimit caps queries that do not set Criteria.Limit.
const DefaultQueryLimit = 50

// Reader queries stored audit events.
type Reader struct {
	storage Storage
}

// NewReader creates a new audit reader
func NewReader(storage Storage) *Reader {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	return &Reader{storage: storage}
}

// Find retrieves audit events matching the criteria, newest first.
func (r *Reader) Find(ctx context.Context, criteria Criteria) ([]Event, error) {
	if criteria.Limit <= 0 {
		criteria.Limit = DefaultQueryLimit
	}
	return r.storage.Query(ctx, criteria)
}
