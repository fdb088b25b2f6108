package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// LoadEnv reads the given .env files into the process environment without
// overriding variables that are already set. With no arguments it loads ./.env
// if present.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		defaultEnvLoaded.Do(func() {
			// a missing default file is fine
			_ = godotenv.Load()
		})
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// Load parses the environment into a new T using `env` struct tags.
// The default .env file is read first.
//
//	type Config struct {
//		MasterKey string `env:"TWO_FACTOR_MASTER_KEY,required"`
//		Window    int    `env:"TWO_FACTOR_WINDOW" envDefault:"2"`
//	}
//
//	cfg, err := config.Load[Config]()
func Load[T any]() (T, error) {
	return LoadWithPrefix[T]("")
}

// LoadWithPrefix is Load with every variable name prefixed, so one struct
// type can be loaded for several instances.
func LoadWithPrefix[T any](prefix string) (T, error) {
	_ = LoadEnv()

	cfg, err := env.ParseAsWithOptions[T](env.Options{Prefix: prefix})
	if err != nil {
		var zero T
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad works like Load but panics on failure. Use it for configuration
// the process cannot start without.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return cfg
}
