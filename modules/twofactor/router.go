package twofactor

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/enrollhub/twofa/handler"
	"github.com/enrollhub/twofa/pkg/audit"
	"github.com/enrollhub/twofa/pkg/binder"
	"github.com/enrollhub/twofa/pkg/clientip"
	"github.com/enrollhub/twofa/pkg/ratelimiter"
	"github.com/enrollhub/twofa/pkg/verification"
	svc "github.com/enrollhub/twofa/svc/twofactor"
)

// Service is the subset of *svc.Service the HTTP module calls.
type Service interface {
	Setup(ctx context.Context, p svc.Principal, label string) (*svc.PendingSetup, error)
	ConfirmSetup(ctx context.Context, p svc.Principal, secret, code string, recoveryCodes []string) error
	VerifyCode(ctx context.Context, p svc.Principal, code string, meta svc.ClientMeta) error
	VerifyRecoveryCode(ctx context.Context, p svc.Principal, code string, meta svc.ClientMeta) (*svc.RecoveryResult, error)
	RegenerateRecoveryCodes(ctx context.Context, p svc.Principal) ([]string, error)
	Disable(ctx context.Context, p svc.Principal, code string, meta svc.ClientMeta) error
	Status(ctx context.Context, p svc.Principal) (*svc.Status, error)
	AuditLogs(ctx context.Context, p svc.Principal, limit int) ([]audit.Event, error)
	CreateSession(ctx context.Context, p svc.Principal) (*verification.Session, error)
	ResolveSession(ctx context.Context, token string) (svc.Principal, error)
	VerifyBySession(ctx context.Context, token, code string, meta svc.ClientMeta) (svc.Principal, error)
	RecoverBySession(ctx context.Context, token, code string, meta svc.ClientMeta) (svc.Principal, *svc.RecoveryResult, error)
	ExchangeSession(ctx context.Context, token string) (svc.Principal, error)
}

var _ Service = (*svc.Service)(nil)

// Module serves the two-factor JSON API.
type Module struct {
	svc        Service
	cfg        Config
	log        *slog.Logger
	principal  PrincipalResolver
	ip         *clientip.Resolver
	limitStore ratelimiter.Store
	ownStore   *ratelimiter.MemoryStore
	errHandler handler.ErrorHandler[handler.Context]

	verifyLimit  *ratelimiter.Bucket
	recoverLimit *ratelimiter.Bucket
}

// Option configures a Module.
type Option func(*Module)

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(m *Module) {
		m.cfg = cfg
	}
}

// WithLogger sets the logger used for request errors.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithPrincipalResolver replaces HeaderPrincipal.
func WithPrincipalResolver(fn PrincipalResolver) Option {
	return func(m *Module) {
		if fn != nil {
			m.principal = fn
		}
	}
}

// WithClientIPResolver sets how client addresses are derived for rate
// limiting and audit records.
func WithClientIPResolver(r *clientip.Resolver) Option {
	return func(m *Module) {
		if r != nil {
			m.ip = r
		}
	}
}

// WithRateLimitStore shares rate limit state, e.g. a ratelimiter.RedisStore
// when several instances serve the API.
func WithRateLimitStore(s ratelimiter.Store) Option {
	return func(m *Module) {
		if s != nil {
			m.limitStore = s
		}
	}
}

// New builds the module. It fails only on an invalid rate limit config.
func New(service Service, opts ...Option) (*Module, error) {
	if service == nil {
		panic("twofactor module: service is required")
	}

	m := &Module{
		svc:       service,
		cfg:       DefaultConfig(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		principal: HeaderPrincipal,
		ip:        clientip.NewResolver(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.errHandler = handler.NewErrorHandler(m.log)

	if m.limitStore == nil {
		m.ownStore = ratelimiter.NewMemoryStore()
		m.limitStore = m.ownStore
	}

	var err error
	m.verifyLimit, err = ratelimiter.NewBucket(m.limitStore, ratelimiter.Config{
		Capacity:       m.cfg.VerifyBurst,
		RefillRate:     1,
		RefillInterval: m.cfg.RefillInterval,
	})
	if err != nil {
		m.Close()
		return nil, err
	}
	m.recoverLimit, err = ratelimiter.NewBucket(m.limitStore, ratelimiter.Config{
		Capacity:       m.cfg.RecoverBurst,
		RefillRate:     1,
		RefillInterval: m.cfg.RefillInterval,
	})
	if err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the in-process rate limit store, if the module owns one.
func (m *Module) Close() {
	if m.ownStore != nil {
		m.ownStore.Close()
	}
}

// Handle returns the router. Mount it under a prefix such as /2fa.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(m.ip.Middleware)

	verifyLimited := m.rateLimit("verify", m.verifyLimit)
	recoverLimited := m.rateLimit("recover", m.recoverLimit)

	r.Group(func(r chi.Router) {
		r.Use(requirePrincipal(m.principal, m.errHandler))

		r.Get("/status", route(m, m.status))
		r.Post("/setup", route(m, m.setup, binder.JSON()))
		r.Post("/setup/confirm", route(m, m.confirmSetup, binder.JSON()))
		r.With(verifyLimited).Post("/verify", route(m, m.verify, binder.JSON()))
		r.With(recoverLimited).Post("/recovery", route(m, m.recoverCode, binder.JSON()))
		r.Post("/recovery-codes", route(m, m.regenerate))
		r.With(verifyLimited).Post("/disable", route(m, m.disable, binder.JSON()))
		r.Get("/audit", route(m, m.auditLogs, binder.Query()))
		r.Post("/sessions", route(m, m.createSession))
	})

	r.Route("/sessions/{token}", func(r chi.Router) {
		r.Get("/", route(m, m.resolveSession, binder.Path()))
		r.With(verifyLimited).Post("/verify", route(m, m.verifySession, binder.Path(), binder.JSON()))
		r.With(recoverLimited).Post("/recover", route(m, m.recoverSession, binder.Path(), binder.JSON()))
		r.Post("/exchange", route(m, m.exchangeSession, binder.Path()))
	})

	return r
}

func (m *Module) rateLimit(scope string, bucket *ratelimiter.Bucket) func(http.Handler) http.Handler {
	return ratelimiter.Middleware(bucket, ratelimiter.Prefixed(scope, clientip.Key),
		ratelimiter.WithLimitedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
			_ = handler.JSONError(handler.ErrTooManyRequests).Render(w, r)
		}),
		ratelimiter.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			m.errHandler(handler.NewContext(w, r), err)
		}),
	)
}

func route[R any](m *Module, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](m.errHandler),
	)
}
