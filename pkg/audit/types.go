package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultError   Result = "error"
)

// Event represents a single audit log entry
type Event struct {
	ID        string         `json:"id" bson:"_id"`
	ActorKind string         `json:"actor_kind" bson:"actor_kind"`
	ActorID   string         `json:"actor_id" bson:"actor_id"`
	Action    string         `json:"action" bson:"action"`
	Result    Result         `json:"result" bson:"result"`
	Error     string         `json:"error,omitempty" bson:"error,omitempty"`
	RequestID string         `json:"request_id,omitempty" bson:"request_id,omitempty"`
	IP        string         `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.ActorKind == "" || e.ActorID == "" {
		return fmt.Errorf("%w: actor is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// Criteria narrows down a query. Zero values are ignored.
type Criteria struct {
	ActorKind string
	ActorID   string
	Action    string
	Since     time.Time
	Until     time.Time
	Limit     int
}

// Matches reports whether e satisfies every non-zero criterion.
func (c Criteria) Matches(e Event) bool {
	switch {
	case c.ActorKind != "" && e.ActorKind != c.ActorKind:
		return false
	case c.ActorID != "" && e.ActorID != c.ActorID:
		return false
	case c.Action != "" && e.Action != c.Action:
		return false
	case !c.Since.IsZero() && e.CreatedAt.Before(c.Since):
		return false
	case !c.Until.IsZero() && !e.CreatedAt.Before(c.Until):
		return false
	}
	return true
}

// Storage persists audit events. Query must return events newest first and
// honor Criteria.Limit when it is positive.
type Storage interface {
	Store(ctx context.Context, event Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// BatchWriter provides bulk inserts for the async writer.
// Implementations must be atomic: either all events are stored or none.
type BatchWriter interface {
	StoreBatch(ctx context.Context, events []Event) error
}
