package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env         string        `env:"ENV" envDefault:"local"`
	StoragePath string        `env:"DATABASE_DSN,required,notEmpty"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	HTTPServer
}

type HTTPServer struct {
	Address     string        `env:"HTTP_ADDRESS" envDefault:"localhost:8080"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"4s"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load reads configuration from environment variables. The JWT secret is
// only ever handed to the token manager, never read again after startup.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	return &cfg, nil
}
