package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds server settings loaded from the environment.
type Config struct {
	Addr       string `env:"POKERZOO_ADDR"        envDefault:":8080"`
	DBPath     string `env:"POKERZOO_DB"          envDefault:"pokerzoo.db"`
	ServerSeed string `env:"POKERZOO_SERVER_SEED" envDefault:""`
	ClientSeed string `env:"POKERZOO_CLIENT_SEED" envDefault:""`
	Workers    int    `env:"POKERZOO_WORKERS"     envDefault:"0"`
}

// Load reads configuration from environment variables, falling back to the
// defaults above.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
