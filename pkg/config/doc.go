// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct tag parsing. Variables already set
// in the environment always win over .env values.
//
//	type Config struct {
//		DatabaseURL string `env:"DATABASE_URL,required"`
//		Port        int    `env:"PORT" envDefault:"8080"`
//	}
//
//	cfg := config.MustLoad[Config]()
package config
