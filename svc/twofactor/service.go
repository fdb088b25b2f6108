package twofactor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/enrollhub/twofa/pkg/audit"
	"github.com/enrollhub/twofa/pkg/logger"
	"github.com/enrollhub/twofa/pkg/secrets"
	"github.com/enrollhub/twofa/pkg/totp"
	"github.com/enrollhub/twofa/pkg/verification"
)

// RecoveryRefreshThreshold is the remaining-code count below which callers
// should prompt the principal to regenerate recovery codes.
const RecoveryRefreshThreshold = 3

// QRRenderer turns an enrollment URI into an embeddable image, usually a data URI.
type QRRenderer interface {
	DataURI(content string) (string, error)
}

// ClientMeta describes the request a verification attempt came from.
type ClientMeta struct {
	IP        string
	UserAgent string
}

func (m ClientMeta) eventOptions() []audit.EventOption {
	return []audit.EventOption{audit.WithIP(m.IP), audit.WithUserAgent(m.UserAgent)}
}

// PendingSetup is returned to the caller by Setup and submitted back to
// ConfirmSetup. It is never stored server-side.
type PendingSetup struct {
	Secret        string   `json:"secret"`
	URI           string   `json:"uri"`
	QRCode        string   `json:"qr_code,omitempty"`
	RecoveryCodes []string `json:"recovery_codes"`
}

// Status is a read-only projection of a credential.
type Status struct {
	Enabled                  bool       `json:"enabled"`
	VerifiedAt               *time.Time `json:"verified_at,omitempty"`
	IsLocked                 bool       `json:"is_locked"`
	LockedUntil              *time.Time `json:"locked_until,omitempty"`
	FailedAttempts           int        `json:"failed_attempts"`
	RemainingRecoveryCodes   int        `json:"remaining_recovery_codes"`
	NeedsRecoveryCodeRefresh bool       `json:"needs_recovery_code_refresh"`
}

// RecoveryResult is returned after a recovery code was accepted.
type RecoveryResult struct {
	RemainingCodes int  `json:"remaining_codes"`
	NeedsRefresh   bool `json:"needs_refresh"`
}

// Service coordinates secrets, codes, lockout, sessions and the audit trail
// for every principal kind.
type Service struct {
	repos    Repositories
	cipher   *secrets.Cipher
	engine   *totp.Engine
	vault    *totp.RecoveryVault
	sessions *verification.Manager
	auditLog *audit.Logger
	reader   *audit.Reader
	qr       QRRenderer
	logger   *slog.Logger
	now      func() time.Time

	auditOpts []audit.Option
}

// Option configures the Service
type Option func(*Service)

// WithLogger sets a custom logger for the service
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source shared by codes, lockout, sessions and audit events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithQRRenderer enables QR images in setup responses.
func WithQRRenderer(r QRRenderer) Option {
	return func(s *Service) {
		s.qr = r
	}
}

// WithAuditOptions passes options to the audit logger, e.g. request id extractors.
func WithAuditOptions(opts ...audit.Option) Option {
	return func(s *Service) {
		s.auditOpts = append(s.auditOpts, opts...)
	}
}

// NewService builds the service. It fails fast when the master key is
// missing or too short.
func NewService(cfg Config, repos Repositories, sessionStore verification.Store, auditStore audit.Storage, opts ...Option) (*Service, error) {
	cipher, err := secrets.New(cfg.MasterKey)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return nil, errors.New("twofactor: at least one repository is required")
	}
	if sessionStore == nil || auditStore == nil {
		return nil, errors.New("twofactor: session store and audit storage are required")
	}

	s := &Service{
		repos:  repos,
		cipher: cipher,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(logger.Component("twofactor"))

	window := cfg.Window
	if window <= 0 {
		window = totp.DefaultWindow
	}
	s.engine = totp.NewEngine(
		totp.WithIssuer(cfg.Issuer),
		totp.WithWindow(window),
		totp.WithClock(s.now),
	)
	s.vault = totp.NewRecoveryVault(
		totp.WithRecoveryCodeCount(cfg.RecoveryCodeCount),
		totp.WithHashCost(cfg.RecoveryHashCost),
		totp.WithHashWorkers(cfg.HashWorkers),
	)
	s.sessions = verification.NewManager(sessionStore, verification.WithClock(s.now))
	s.auditLog = audit.NewLogger(auditStore, append([]audit.Option{audit.WithClock(s.now)}, s.auditOpts...)...)
	s.reader = audit.NewReader(auditStore)

	return s, nil
}

// Setup starts enrollment. Nothing is persisted until ConfirmSetup succeeds.
func (s *Service) Setup(ctx context.Context, p Principal, label string) (*PendingSetup, error) {
	repo, err := s.repository(p)
	if err != nil {
		return nil, err
	}

	cred, err := repo.Load(ctx, p.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, s.internal(ctx, "setup: load credential", p, err)
	}
	if cred != nil && cred.Enabled {
		return nil, ErrAlreadyEnabled
	}

	enrollment, err := s.engine.GenerateSecret(label)
	if err != nil {
		if errors.Is(err, totp.ErrMissingAccountName) {
			return nil, errors.Join(ErrInvalidSetup, err)
		}
		return nil, s.internal(ctx, "setup: generate secret", p, err)
	}

	codes, err := s.vault.Generate(s.vault.Count())
	if err != nil {
		return nil, s.internal(ctx, "setup: generate recovery codes", p, err)
	}

	pending := &PendingSetup{
		Secret:        enrollment.Secret,
		URI:           enrollment.URI,
		RecoveryCodes: codes,
	}

	if s.qr != nil {
		img, err := s.qr.DataURI(enrollment.URI)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to render enrollment qr code",
				logger.Principal(string(p.Kind), p.ID), logger.Error(err))
		} else {
			pending.QRCode = img
		}
	}

	s.record(ctx, p, ActionBackupCodesGenerated, audit.WithMetadata("count", len(codes)))

	return pending, nil
}

// ConfirmSetup enables two-factor authentication once the principal proves
// their authenticator produces valid codes for secret. Failed confirmations
// do not count towards lockout.
func (s *Service) ConfirmSetup(ctx context.Context, p Principal, secret, code string, recoveryCodes []string) error {
	repo, err := s.repository(p)
	if err != nil {
		return err
	}

	if !totp.ValidSecret(secret) {
		return ErrInvalidSetup
	}
	normalized, err := normalizeRecoveryCodes(recoveryCodes)
	if err != nil {
		return err
	}

	cred, err := repo.Load(ctx, p.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return s.internal(ctx, "confirm setup: load credential", p, err)
	}
	if cred != nil && cred.Enabled {
		return ErrAlreadyEnabled
	}

	if !s.engine.Verify(secret, code) {
		s.recordFailure(ctx, p, ErrInvalidCode, audit.WithMetadata("reason", "invalid setup code"))
		return ErrInvalidCode
	}

	encrypted, err := s.cipher.Encrypt(secret)
	if err != nil {
		return s.internal(ctx, "confirm setup: encrypt secret", p, err)
	}
	hashes, err := s.vault.HashAll(ctx, normalized)
	if err != nil {
		return s.internal(ctx, "confirm setup: hash recovery codes", p, err)
	}

	now := s.now().UTC()
	_, err = repo.Update(ctx, p.ID, func(c *Credential) error {
		if c.Enabled {
			return ErrAlreadyEnabled
		}
		c.enable(encrypted, hashes, now)
		return nil
	})
	if err != nil {
		return s.fail(ctx, "confirm setup: store credential", p, err)
	}

	s.record(ctx, p, ActionEnabled, audit.WithMetadata("recovery_codes_count", len(hashes)))
	return nil
}

// VerifyCode checks a TOTP code for p. A wrong code returns *InvalidCodeError
// with the attempts left, and the failure that reaches the threshold returns
// *LockedError.
func (s *Service) VerifyCode(ctx context.Context, p Principal, code string, meta ClientMeta) error {
	repo, err := s.repository(p)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	var (
		matched   bool
		locked    bool
		remaining int
		attempts  int
		lockedAt  *time.Time
	)

	_, err = repo.Update(ctx, p.ID, func(c *Credential) error {
		if !c.Enabled {
			return ErrNotConfigured
		}
		if err := CheckLocked(c, now); err != nil {
			return err
		}

		secret, err := s.cipher.Decrypt(c.EncryptedSecret)
		if err != nil {
			return err
		}

		if s.engine.Verify(secret, code) {
			RegisterSuccess(c)
			matched = true
			return nil
		}

		locked = RegisterFailure(c, now)
		remaining = RemainingAttempts(c)
		attempts = c.FailedAttempts
		lockedAt = cloneTime(c.LockedUntil)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLocked) {
			s.recordFailure(ctx, p, err, append(meta.eventOptions(),
				audit.WithMetadata("method", "totp"),
				audit.WithMetadata("reason", "locked"))...)
		}
		return s.fail(ctx, "verify code", p, err)
	}

	if matched {
		s.record(ctx, p, ActionVerified, append(meta.eventOptions(), audit.WithMetadata("method", "totp"))...)
		return nil
	}

	if locked {
		s.recordLocked(ctx, p, *lockedAt, meta)
	}
	s.recordFailure(ctx, p, ErrInvalidCode, append(meta.eventOptions(),
		audit.WithMetadata("method", "totp"),
		audit.WithMetadata("attempts", attempts))...)

	if locked {
		return &LockedError{Until: *lockedAt, Remaining: lockedAt.Sub(now)}
	}
	return &InvalidCodeError{RemainingAttempts: remaining}
}

// VerifyRecoveryCode consumes a single recovery code. Wrong recovery codes
// are audited but do not count towards lockout; rate limit them upstream.
func (s *Service) VerifyRecoveryCode(ctx context.Context, p Principal, code string, meta ClientMeta) (*RecoveryResult, error) {
	repo, err := s.repository(p)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cred, err := repo.Update(ctx, p.ID, func(c *Credential) error {
		if !c.Enabled {
			return ErrNotConfigured
		}
		if err := CheckLocked(c, now); err != nil {
			return err
		}

		remaining, ok := s.vault.Consume(c.RecoveryCodeHashes, code)
		if !ok {
			return ErrInvalidRecoveryCode
		}
		c.RecoveryCodeHashes = remaining
		RegisterSuccess(c)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRecoveryCode):
			s.recordFailure(ctx, p, err, append(meta.eventOptions(), audit.WithMetadata("method", "recovery_code"))...)
		case errors.Is(err, ErrLocked):
			s.recordFailure(ctx, p, err, append(meta.eventOptions(),
				audit.WithMetadata("method", "recovery_code"),
				audit.WithMetadata("reason", "locked"))...)
		}
		return nil, s.fail(ctx, "verify recovery code", p, err)
	}

	left := len(cred.RecoveryCodeHashes)
	s.record(ctx, p, ActionRecoveryUsed, append(meta.eventOptions(), audit.WithMetadata("remaining_codes", left))...)

	return &RecoveryResult{
		RemainingCodes: left,
		NeedsRefresh:   left < RecoveryRefreshThreshold,
	}, nil
}

// RegenerateRecoveryCodes replaces every recovery code with a fresh batch.
// The caller must have re-checked the principal's password.
func (s *Service) RegenerateRecoveryCodes(ctx context.Context, p Principal) ([]string, error) {
	repo, err := s.repository(p)
	if err != nil {
		return nil, err
	}

	cred, err := repo.Load(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, s.internal(ctx, "regenerate recovery codes: load credential", p, err)
	}
	if !cred.Enabled {
		return nil, ErrNotConfigured
	}

	codes, err := s.vault.Generate(s.vault.Count())
	if err != nil {
		return nil, s.internal(ctx, "regenerate recovery codes: generate", p, err)
	}
	hashes, err := s.vault.HashAll(ctx, codes)
	if err != nil {
		return nil, s.internal(ctx, "regenerate recovery codes: hash", p, err)
	}

	_, err = repo.Update(ctx, p.ID, func(c *Credential) error {
		if !c.Enabled {
			return ErrNotConfigured
		}
		c.RecoveryCodeHashes = hashes
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "regenerate recovery codes: store", p, err)
	}

	s.record(ctx, p, ActionBackupCodesGenerated,
		audit.WithMetadata("count", len(codes)),
		audit.WithMetadata("regenerated", true))

	return codes, nil
}

// Disable turns two-factor authentication off after checking a current code
// the same way VerifyCode does. Every verification session of p is purged.
func (s *Service) Disable(ctx context.Context, p Principal, code string, meta ClientMeta) error {
	if err := s.VerifyCode(ctx, p, code, meta); err != nil {
		return err
	}

	repo, err := s.repository(p)
	if err != nil {
		return err
	}

	_, err = repo.Update(ctx, p.ID, func(c *Credential) error {
		if !c.Enabled {
			return ErrNotConfigured
		}
		c.clear()
		return nil
	})
	if err != nil {
		return s.fail(ctx, "disable: clear credential", p, err)
	}

	if err := s.sessions.PurgeAll(ctx, p.subject()); err != nil {
		s.logger.ErrorContext(ctx, "failed to purge verification sessions",
			logger.Principal(string(p.Kind), p.ID), logger.Error(err))
	}

	s.record(ctx, p, ActionDisabled, meta.eventOptions()...)
	return nil
}

// Status returns the credential projection, or ErrNotFound when p has no record.
func (s *Service) Status(ctx context.Context, p Principal) (*Status, error) {
	repo, err := s.repository(p)
	if err != nil {
		return nil, err
	}

	cred, err := repo.Load(ctx, p.ID)
	if err != nil {
		return nil, s.fail(ctx, "status: load credential", p, err)
	}

	remaining := len(cred.RecoveryCodeHashes)
	return &Status{
		Enabled:                  cred.Enabled,
		VerifiedAt:               cloneTime(cred.VerifiedAt),
		IsLocked:                 IsLocked(cred, s.now()),
		LockedUntil:              cloneTime(cred.LockedUntil),
		FailedAttempts:           cred.FailedAttempts,
		RemainingRecoveryCodes:   remaining,
		NeedsRecoveryCodeRefresh: remaining < RecoveryRefreshThreshold,
	}, nil
}

// AuditLogs returns the most recent audit events for p, newest first.
func (s *Service) AuditLogs(ctx context.Context, p Principal, limit int) ([]audit.Event, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	events, err := s.reader.Find(ctx, audit.Criteria{
		ActorKind: string(p.Kind),
		ActorID:   p.ID,
		Limit:     limit,
	})
	if err != nil {
		return nil, s.internal(ctx, "audit logs: query", p, err)
	}
	return events, nil
}

func (s *Service) repository(p Principal) (Repository, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repos.get(p.Kind)
}

// fail passes routine errors through and hides everything else behind ErrInternal.
func (s *Service) fail(ctx context.Context, op string, p Principal, err error) error {
	if isExpected(err) {
		return err
	}
	return s.internal(ctx, op, p, err)
}

func (s *Service) internal(ctx context.Context, op string, p Principal, err error) error {
	s.logger.ErrorContext(ctx, op,
		logger.Principal(string(p.Kind), p.ID),
		logger.Error(err))
	return ErrInternal
}

func normalizeRecoveryCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, ErrInvalidSetup
	}
	out := make([]string, len(codes))
	for i, code := range codes {
		n := totp.NormalizeRecoveryCode(code)
		if !totp.ValidRecoveryCode(n) {
			return nil, ErrInvalidSetup
		}
		out[i] = n
	}
	return out, nil
}
