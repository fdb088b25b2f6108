// Package mongostore keeps the two-factor audit trail in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/enrollhub/twofa/pkg/audit"
)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "two_factor_audit_events"

// ErrNoDatabase is returned when the storage is built without a database handle.
var ErrNoDatabase = errors.New("mongostore: database is required")

// AuditStorage implements audit.Storage and audit.BatchWriter.
type AuditStorage struct {
	coll         *mongo.Collection
	transactions bool
}

var (
	_ audit.Storage     = (*AuditStorage)(nil)
	_ audit.BatchWriter = (*AuditStorage)(nil)
)

// Option configures an AuditStorage.
type Option func(*auditOptions)

type auditOptions struct {
	collection   string
	transactions bool
}

// WithCollection overrides DefaultCollection.
func WithCollection(name string) Option {
	return func(o *auditOptions) {
		if name != "" {
			o.collection = name
		}
	}
}

// WithTransactions wraps every batch in a multi-document transaction.
// Requires a replica set; without it a failed batch may be partially written.
func WithTransactions(enabled bool) Option {
	return func(o *auditOptions) {
		o.transactions = enabled
	}
}

// NewAuditStorage returns storage bound to a collection of db.
func NewAuditStorage(db *mongo.Database, opts ...Option) (*AuditStorage, error) {
	if db == nil {
		return nil, ErrNoDatabase
	}

	o := auditOptions{collection: DefaultCollection}
	for _, opt := range opts {
		opt(&o)
	}

	// Nested metadata decodes into maps rather than ordered documents.
	coll := db.Collection(o.collection, options.Collection().SetBSONOptions(&options.BSONOptions{
		DefaultDocumentM: true,
	}))
	return &AuditStorage{coll: coll, transactions: o.transactions}, nil
}

// EnsureIndexes creates the indexes Query relies on. Safe to call repeatedly.
func (s *AuditStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "actor_kind", Value: 1}, {Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "action", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

func (s *AuditStorage) Store(ctx context.Context, event audit.Event) error {
	if _, err := s.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *AuditStorage) StoreBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	insert := func(ctx context.Context) (any, error) {
		return s.coll.InsertMany(ctx, events)
	}

	if !s.transactions {
		if _, err := insert(ctx); err != nil {
			return fmt.Errorf("insert audit events: %w", err)
		}
		return nil
	}

	sess, err := s.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start audit session: %w", err)
	}
	defer sess.EndSession(ctx)

	if _, err := sess.WithTransaction(ctx, insert); err != nil {
		return fmt.Errorf("insert audit events: %w", err)
	}
	return nil
}

func (s *AuditStorage) Query(ctx context.Context, criteria audit.Criteria) ([]audit.Event, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if criteria.Limit > 0 {
		findOpts.SetLimit(int64(criteria.Limit))
	}

	cursor, err := s.coll.Find(ctx, buildFilter(criteria), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}

	events := make([]audit.Event, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}
	for i := range events {
		events[i].CreatedAt = events[i].CreatedAt.UTC()
	}
	return events, nil
}

func buildFilter(c audit.Criteria) bson.D {
	filter := bson.D{}
	if c.ActorKind != "" {
		filter = append(filter, bson.E{Key: "actor_kind", Value: c.ActorKind})
	}
	if c.ActorID != "" {
		filter = append(filter, bson.E{Key: "actor_id", Value: c.ActorID})
	}
	if c.Action != "" {
		filter = append(filter, bson.E{Key: "action", Value: c.Action})
	}

	created := bson.D{}
	if !c.Since.IsZero() {
		created = append(created, bson.E{Key: "$gte", Value: c.Since})
	}
	if !c.Until.IsZero() {
		created = append(created, bson.E{Key: "$lt", Value: c.Until})
	}
	if len(created) > 0 {
		filter = append(filter, bson.E{Key: "created_at", Value: created})
	}
	return filter
}
