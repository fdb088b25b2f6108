package twofactor

import "time"

// Config controls the per-IP rate limits on code checking endpoints.
type Config struct {
	VerifyBurst    int           `env:"HTTP_VERIFY_RATE_BURST" envDefault:"10"`
	RecoverBurst   int           `env:"HTTP_RECOVER_RATE_BURST" envDefault:"5"`
	RefillInterval time.Duration `env:"HTTP_RATE_REFILL_INTERVAL" envDefault:"1m"` // one token per interval
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		VerifyBurst:    10,
		RecoverBurst:   5,
		RefillInterval: time.Minute,
	}
}
