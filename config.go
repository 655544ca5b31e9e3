package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries process configuration. Every field has a default so the
// service runs with no environment set; the listen address stays gin's
// PORT handling and the OTLP endpoints stay the exporter SDK's own
// environment variables.
type Config struct {
	DatabasePath string `env:"TODO_DATABASE_PATH" envDefault:"./todo.db"`
	ServiceName  string `env:"TODO_SERVICE_NAME" envDefault:"todo-api"`
	Environment  string `env:"TODO_ENVIRONMENT" envDefault:"development"`
}

// ParseConfig loads configuration from environment variables.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
