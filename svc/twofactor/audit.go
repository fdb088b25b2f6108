package twofactor

import (
	"context"
	"time"

	"github.com/enrollhub/twofa/pkg/audit"
	"github.com/enrollhub/twofa/pkg/logger"
)

// Audit actions recorded by the service.
const (
	ActionBackupCodesGenerated = "two_factor.backup_codes_generated"
	ActionEnabled              = "two_factor.enabled"
	ActionVerified             = "two_factor.verified"
	ActionFailed               = "two_factor.failed"
	ActionLocked               = "two_factor.locked"
	ActionDisabled             = "two_factor.disabled"
	ActionRecoveryUsed         = "two_factor.recovery_used"
)

// record writes a success event. Audit storage failures are logged and never
// fail the operation that produced the event.
func (s *Service) record(ctx context.Context, p Principal, action string, opts ...audit.EventOption) {
	opts = append([]audit.EventOption{audit.WithActor(string(p.Kind), p.ID)}, opts...)
	if err := s.auditLog.Log(ctx, action, opts...); err != nil {
		s.auditFailed(ctx, p, action, err)
	}
}

func (s *Service) recordFailure(ctx context.Context, p Principal, cause error, opts ...audit.EventOption) {
	opts = append([]audit.EventOption{
		audit.WithActor(string(p.Kind), p.ID),
		audit.WithResult(audit.ResultFailure),
	}, opts...)
	if err := s.auditLog.LogError(ctx, ActionFailed, cause, opts...); err != nil {
		s.auditFailed(ctx, p, ActionFailed, err)
	}
}

func (s *Service) recordLocked(ctx context.Context, p Principal, until time.Time, meta ClientMeta) {
	opts := append([]audit.EventOption{
		audit.WithActor(string(p.Kind), p.ID),
		audit.WithResult(audit.ResultFailure),
		audit.WithMetadata("locked_until", until.Format(time.RFC3339)),
		audit.WithMetadata("max_attempts", MaxFailedAttempts),
	}, meta.eventOptions()...)
	if err := s.auditLog.Log(ctx, ActionLocked, opts...); err != nil {
		s.auditFailed(ctx, p, ActionLocked, err)
	}
}

func (s *Service) auditFailed(ctx context.Context, p Principal, action string, err error) {
	s.logger.ErrorContext(ctx, "failed to write audit event",
		logger.Principal(string(p.Kind), p.ID),
		logger.Event(action),
		logger.Error(err))
}
