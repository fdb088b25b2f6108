// Command twofactord serves the two-factor API for users and organization
// employees.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhub/twofa/modules/twofactor"
	"github.com/enrollhub/twofa/pkg/audit"
	"github.com/enrollhub/twofa/pkg/clientip"
	"github.com/enrollhub/twofa/pkg/config"
	"github.com/enrollhub/twofa/pkg/httpserver"
	"github.com/enrollhub/twofa/pkg/logger"
	"github.com/enrollhub/twofa/pkg/mongo"
	"github.com/enrollhub/twofa/pkg/pg"
	"github.com/enrollhub/twofa/pkg/qrcode"
	"github.com/enrollhub/twofa/pkg/ratelimiter"
	"github.com/enrollhub/twofa/pkg/redis"
	"github.com/enrollhub/twofa/pkg/requestid"
	"github.com/enrollhub/twofa/pkg/verification"
	svc "github.com/enrollhub/twofa/svc/twofactor"
	"github.com/enrollhub/twofa/svc/twofactor/mongostore"
	"github.com/enrollhub/twofa/svc/twofactor/pgstore"
	"github.com/enrollhub/twofa/svc/twofactor/redisstore"
)

func main() {
	cfg, err := config.Load[appConfig]()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "twofactord"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("twofactord stopped", logger.Error(err))
		os.Exit(1)
	}
}

// closers run in reverse order on shutdown.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) { *c = append(*c, fn) }

func (c closers) close(log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			log.Error("shutdown step failed", logger.Error(err))
		}
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var cleanup closers
	defer cleanup.close(log)

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	cleanup.add(func(context.Context) error { pool.Close(); return nil })

	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg.Postgres, log); err != nil {
		return err
	}

	repos, err := pgstore.NewRepositories(pool)
	if err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "postgres", Probe: pg.Healthcheck(pool)}}

	sessionStore, limitStore, err := sessionBackend(ctx, cfg, log, &cleanup, &checks)
	if err != nil {
		return err
	}

	auditStore, err := auditBackend(ctx, cfg, pool, &cleanup, &checks)
	if err != nil {
		return err
	}

	service, err := svc.NewService(cfg.TwoFactor, repos, sessionStore, auditStore,
		svc.WithLogger(log),
		svc.WithQRRenderer(qrcode.NewRenderer(qrcode.WithSize(cfg.TwoFactor.QRCodeSize))),
		svc.WithAuditOptions(
			audit.WithRequestIDExtractor(requestid.Extract),
			audit.WithIPExtractor(clientip.Extract),
		),
	)
	if err != nil {
		return err
	}

	go sweepSessions(ctx, service, cfg.TwoFactor.SessionCleanupInterval, log)

	ipResolver := clientip.NewResolver(clientip.WithTrustedHeaders(cfg.TrustedIPHeaders...))
	moduleOpts := []twofactor.Option{
		twofactor.WithConfig(cfg.Module),
		twofactor.WithLogger(log),
		twofactor.WithClientIPResolver(ipResolver),
	}
	if limitStore != nil {
		moduleOpts = append(moduleOpts, twofactor.WithRateLimitStore(limitStore))
	}
	module, err := twofactor.New(service, moduleOpts...)
	if err != nil {
		return err
	}
	defer module.Close()

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.Recoverer)
	r.Get("/livez", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.HTTP.HealthTimeout, checks...))
	r.Mount(cfg.MountPath, module.Handle())

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

func sessionBackend(ctx context.Context, cfg appConfig, log *slog.Logger, cleanup *closers, checks *[]httpserver.Check) (verification.Store, ratelimiter.Store, error) {
	switch cfg.SessionBackend {
	case backendMemory:
		store := verification.NewMemoryStore(cfg.TwoFactor.SessionCleanupInterval)
		cleanup.add(func(context.Context) error { return store.Close() })
		return store, nil, nil

	case backendRedis:
		rcfg, err := config.Load[redis.Config]()
		if err != nil {
			return nil, nil, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return nil, nil, err
		}
		cleanup.add(func(context.Context) error { return client.Close() })
		*checks = append(*checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})

		limits, err := ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix(rcfg.KeyPrefix+"ratelimit:"))
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(client,
			redisstore.WithPrefix(rcfg.KeyPrefix),
			redisstore.WithLogger(log),
		), limits, nil
	}
	return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
}

func auditBackend(ctx context.Context, cfg appConfig, pool *pgxpool.Pool, cleanup *closers, checks *[]httpserver.Check) (audit.Storage, error) {
	var (
		storage audit.Storage
		batch   audit.BatchWriter
	)

	switch cfg.AuditBackend {
	case backendPostgres:
		s, err := pgstore.NewAuditStorage(pool)
		if err != nil {
			return nil, err
		}
		storage, batch = s, s

	case backendMongo:
		mcfg, err := config.Load[mongo.Config]()
		if err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, mcfg)
		if err != nil {
			return nil, err
		}
		cleanup.add(db.Client().Disconnect)
		*checks = append(*checks, httpserver.Check{Name: "mongo", Probe: mongo.Healthcheck(db.Client())})

		s, err := mongostore.NewAuditStorage(db, mongostore.WithTransactions(cfg.MongoTransactions))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		storage, batch = s, s

	default:
		return nil, fmt.Errorf("unknown AUDIT_BACKEND %q", cfg.AuditBackend)
	}

	if !cfg.AuditAsync {
		return storage, nil
	}
	writer, closeWriter := audit.NewAsyncWriter(storage, batch, audit.AsyncOptions{})
	cleanup.add(closeWriter)
	return writer, nil
}

func sweepSessions(ctx context.Context, service *svc.Service, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged by the service
			if n, err := service.SweepSessions(ctx); err == nil && n > 0 {
				log.DebugContext(ctx, "swept expired verification sessions", logger.Count(n))
			}
		}
	}
}
