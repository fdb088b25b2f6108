// Package redisstore keeps verification sessions in Redis.
//
// Each session is a JSON value under "<prefix>session:<token>" whose TTL
// matches the session expiry, so Redis evicts expired sessions on its own.
// A set under "<prefix>subject:<kind>:<id>" indexes the tokens issued to a
// principal and backs DeleteBySubject.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enrollhub/twofa/pkg/logger"
	"github.com/enrollhub/twofa/pkg/verification"
)

// minTTL keeps a session that is already at its expiry from being stored
// without a TTL.
const minTTL = time.Millisecond

// Store implements verification.Store on top of a go-redis client.
type Store struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

var _ verification.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key the store writes.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides the time source used to compute key TTLs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for best-effort index maintenance failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Store. It panics if client is nil.
func New(client redis.Cmdable, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: client is required")
	}
	s := &Store{
		client: client,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("redisstore"))
	return s
}

func (s *Store) sessionKey(token string) string {
	return s.prefix + "session:" + token
}

func (s *Store) subjectKey(subject verification.Subject) string {
	return s.prefix + "subject:" + subject.String()
}

func (s *Store) ttl(session *verification.Session) time.Duration {
	return max(session.ExpiresAt.Sub(s.now()), minTTL)
}

func (s *Store) Create(ctx context.Context, session *verification.Session) error {
	if session == nil || session.Token == "" {
		return verification.ErrSessionInvalid
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redisstore: encode session: %w", err)
	}

	subjectKey := s.subjectKey(session.Subject)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(session.Token), data, s.ttl(session))
		pipe.SAdd(ctx, subjectKey, session.Token)
		pipe.ExpireAt(ctx, subjectKey, session.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: create session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, token string) (*verification.Session, error) {
	data, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if err != nil {
		return nil, s.readErr("get", err)
	}
	return decode(data)
}

func (s *Store) Update(ctx context.Context, session *verification.Session) error {
	if session == nil || session.Token == "" {
		return verification.ErrSessionInvalid
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redisstore: encode session: %w", err)
	}

	// XX: only overwrite an existing key. KEEPTTL: never extend the session.
	err = s.client.SetArgs(ctx, s.sessionKey(session.Token), data, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if err != nil {
		return s.readErr("update", err)
	}
	return nil
}

func (s *Store) Take(ctx context.Context, token string) (*verification.Session, error) {
	data, err := s.client.GetDel(ctx, s.sessionKey(token)).Bytes()
	if err != nil {
		return nil, s.readErr("take", err)
	}

	session, err := decode(data)
	if err != nil {
		return nil, err
	}
	// The session is already gone; a stale index member only costs DeleteBySubject a no-op.
	if err := s.client.SRem(ctx, s.subjectKey(session.Subject), token).Err(); err != nil {
		s.logger.DebugContext(ctx, "failed to drop session from subject index",
			logger.Principal(session.Subject.Kind, session.Subject.ID),
			logger.Error(err))
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	_, err := s.Take(ctx, token)
	if err != nil && !errors.Is(err, verification.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *Store) DeleteBySubject(ctx context.Context, subject verification.Subject) error {
	subjectKey := s.subjectKey(subject)
	tokens, err := s.client.SMembers(ctx, subjectKey).Result()
	if err != nil {
		return fmt.Errorf("redisstore: list subject sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.sessionKey(token))
	}
	keys = append(keys, subjectKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redisstore: delete subject sessions: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires session keys by TTL.
func (s *Store) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *Store) readErr(op string, err error) error {
	if errors.Is(err, redis.Nil) {
		return verification.ErrSessionNotFound
	}
	return fmt.Errorf("redisstore: %s session: %w", op, err)
}

func decode(data []byte) (*verification.Session, error) {
	var session verification.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("redisstore: decode session: %w", err)
	}
	return &session, nil
}
