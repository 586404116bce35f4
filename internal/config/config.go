package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Addr   string `env:"ADDR" envDefault:":8083"`
	RoomID string `env:"ROOM_ID" envDefault:"main"`

	// SharedSecret is the single join passphrase. Per-user credentials are
	// deliberately out of scope.
	SharedSecret string `env:"CHAT_SECRET" envDefault:"mypassword"`

	// RedisAddr selects the durable tier; empty runs in-memory only.
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	AmqpURL      string `env:"AMQP_URL"`
	AmqpExchange string `env:"AMQP_EXCHANGE" envDefault:"chat.events"`

	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment  string `env:"ENVIRONMENT" envDefault:"dev"`
	DebugRoutes  bool   `env:"DEBUG_ROUTES"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SharedSecret == "" {
		return Config{}, fmt.Errorf("CHAT_SECRET must not be empty")
	}
	return cfg, nil
}
