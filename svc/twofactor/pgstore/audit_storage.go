package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhub/twofa/pkg/audit"
)

const auditTable = "two_factor_audit_events"

var auditColumns = []string{
	"id", "actor_kind", "actor_id", "action", "result", "error",
	"request_id", "ip", "user_agent", "metadata", "created_at",
}

// AuditStorage implements audit.Storage and audit.BatchWriter.
type AuditStorage struct {
	pool *pgxpool.Pool
}

// NewAuditStorage creates a PostgreSQL audit storage
func NewAuditStorage(pool *pgxpool.Pool) (*AuditStorage, error) {
	if pool == nil {
		return nil, ErrNoPool
	}
	return &AuditStorage{pool: pool}, nil
}

func (s *AuditStorage) Store(ctx context.Context, event audit.Event) error {
	return s.StoreBatch(ctx, []audit.Event{event})
}

// StoreBatch copies all events in a single COPY statement, so either every
// event is written or none is.
func (s *AuditStorage) StoreBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			id = uuid.New()
		}
		rows = append(rows, []any{
			id, e.ActorKind, e.ActorID, e.Action, string(e.Result), nullable(e.Error),
			nullable(e.RequestID), nullable(e.IP), nullable(e.UserAgent), e.Metadata, e.CreatedAt,
		})
	}

	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{auditTable}, auditColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy audit events: %w", err)
	}
	return nil
}

func (s *AuditStorage) Query(ctx context.Context, criteria audit.Criteria) ([]audit.Event, error) {
	query, args := buildAuditQuery(criteria)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var (
			e                             audit.Event
			id                            uuid.UUID
			result                        string
			errText, reqID, ip, userAgent *string
		)
		if err := row.Scan(&id, &e.ActorKind, &e.ActorID, &e.Action, &result, &errText,
			&reqID, &ip, &userAgent, &e.Metadata, &e.CreatedAt); err != nil {
			return e, err
		}
		e.ID = id.String()
		e.Result = audit.Result(result)
		e.Error = deref(errText)
		e.RequestID = deref(reqID)
		e.IP = deref(ip)
		e.UserAgent = deref(userAgent)
		e.CreatedAt = e.CreatedAt.UTC()
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}

func buildAuditQuery(c audit.Criteria) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if c.ActorKind != "" {
		add("actor_kind = $%d", c.ActorKind)
	}
	if c.ActorID != "" {
		add("actor_id = $%d", c.ActorID)
	}
	if c.Action != "" {
		add("action = $%d", c.Action)
	}
	if !c.Since.IsZero() {
		add("created_at >= $%d", c.Since)
	}
	if !c.Until.IsZero() {
		add("created_at < $%d", c.Until)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(auditColumns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(auditTable)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if c.Limit > 0 {
		args = append(args, c.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
