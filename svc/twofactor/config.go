package twofactor

import "time"

// Config holds the service settings loaded from the environment.
// Zero numeric fields fall back to the package defaults, so Window 0
// means totp.DefaultWindow steps of skew rather than none.
type Config struct {
	MasterKey              string        `env:"TWO_FACTOR_MASTER_KEY,required"`
	Issuer                 string        `env:"TWO_FACTOR_ISSUER" envDefault:"EnrollHub"`
	Window                 int           `env:"TWO_FACTOR_WINDOW" envDefault:"2"`
	RecoveryCodeCount      int           `env:"TWO_FACTOR_RECOVERY_CODES" envDefault:"10"`
	RecoveryHashCost       int           `env:"TWO_FACTOR_RECOVERY_HASH_COST" envDefault:"10"`
	HashWorkers            int           `env:"TWO_FACTOR_HASH_WORKERS" envDefault:"0"`
	SessionCleanupInterval time.Duration `env:"TWO_FACTOR_SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	QRCodeSize             int           `env:"TWO_FACTOR_QR_SIZE" envDefault:"256"`
}
