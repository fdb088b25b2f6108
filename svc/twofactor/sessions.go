package twofactor

import (
	"context"
	"errors"

	"github.com/enrollhub/twofa/pkg/logger"
	"github.com/enrollhub/twofa/pkg/verification"
)

// CreateSession issues a pending verification session for p. Call it after
// the principal's password was checked.
func (s *Service) CreateSession(ctx context.Context, p Principal) (*verification.Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repos.get(p.Kind); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, p.subject())
	if err != nil {
		return nil, s.internal(ctx, "create session", p, err)
	}
	return session, nil
}

// ResolveSession returns the principal of a pending session.
func (s *Service) ResolveSession(ctx context.Context, token string) (Principal, error) {
	subject, err := s.sessions.Peek(ctx, token)
	if err != nil {
		return Principal{}, s.sessionError(ctx, "resolve session", err)
	}

	p, err := principalFromSubject(subject)
	if err != nil {
		return Principal{}, ErrSessionInvalid
	}
	return p, nil
}

// MarkSessionVerified records a successful second-factor check on the session.
func (s *Service) MarkSessionVerified(ctx context.Context, token string) error {
	if err := s.sessions.MarkVerified(ctx, token); err != nil {
		return s.sessionError(ctx, "mark session verified", err)
	}
	return nil
}

// VerifyBySession resolves the session, checks the code and marks the
// session verified on success.
func (s *Service) VerifyBySession(ctx context.Context, token, code string, meta ClientMeta) (Principal, error) {
	p, err := s.ResolveSession(ctx, token)
	if err != nil {
		return Principal{}, err
	}
	if err := s.VerifyCode(ctx, p, code, meta); err != nil {
		return Principal{}, err
	}
	if err := s.MarkSessionVerified(ctx, token); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// RecoverBySession is VerifyBySession with a recovery code.
func (s *Service) RecoverBySession(ctx context.Context, token, code string, meta ClientMeta) (Principal, *RecoveryResult, error) {
	p, err := s.ResolveSession(ctx, token)
	if err != nil {
		return Principal{}, nil, err
	}
	result, err := s.VerifyRecoveryCode(ctx, p, code, meta)
	if err != nil {
		return Principal{}, nil, err
	}
	if err := s.MarkSessionVerified(ctx, token); err != nil {
		return Principal{}, nil, err
	}
	return p, result, nil
}

// ExchangeSession consumes a verified session exactly once and returns its
// principal, so the caller can issue the final credential.
func (s *Service) ExchangeSession(ctx context.Context, token string) (Principal, error) {
	subject, err := s.sessions.Consume(ctx, token)
	if err != nil {
		return Principal{}, s.sessionError(ctx, "exchange session", err)
	}

	p, err := principalFromSubject(subject)
	if err != nil {
		return Principal{}, ErrSessionInvalid
	}
	return p, nil
}

// SweepSessions deletes expired sessions and returns how many were removed.
func (s *Service) SweepSessions(ctx context.Context) (int, error) {
	n, err := s.sessions.Sweep(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sweep verification sessions", logger.Error(err))
		return 0, ErrInternal
	}
	return n, nil
}

func (s *Service) sessionError(ctx context.Context, op string, err error) error {
	if errors.Is(err, verification.ErrSessionInvalid) {
		return ErrSessionInvalid
	}
	s.logger.ErrorContext(ctx, op, logger.Error(err))
	return ErrInternal
}
