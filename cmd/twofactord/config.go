package main

import (
	"github.com/enrollhub/twofa/modules/twofactor"
	"github.com/enrollhub/twofa/pkg/httpserver"
	"github.com/enrollhub/twofa/pkg/pg"
	svc "github.com/enrollhub/twofa/svc/twofactor"
)

const (
	backendPostgres = "postgres"
	backendMongo    = "mongo"
	backendRedis    = "redis"
	backendMemory   = "memory"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	MountPath        string   `env:"HTTP_MOUNT_PATH" envDefault:"/2fa"`
	TrustedIPHeaders []string `env:"HTTP_TRUSTED_IP_HEADERS" envSeparator:","`

	AuditBackend   string `env:"AUDIT_BACKEND" envDefault:"postgres"`
	AuditAsync     bool   `env:"AUDIT_ASYNC" envDefault:"true"`
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"redis"`

	// MongoTransactions requires a replica set.
	MongoTransactions bool `env:"MONGODB_TRANSACTIONS" envDefault:"false"`

	TwoFactor svc.Config
	Module    twofactor.Config
	HTTP      httpserver.Config
	Postgres  pg.Config
}
