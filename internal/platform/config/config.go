package config

import (
	"os"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	EnableTriggerConsumer bool
	EnableOutboxRelay     bool

	RuleCacheTTL       time.Duration
	WorkerPollInterval time.Duration
	WebhookTimeout     time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "adops"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		EnableTriggerConsumer: envBool("ENABLE_TRIGGER_CONSUMER", true),
		EnableOutboxRelay:     envBool("ENABLE_OUTBOX_RELAY", true),

		RuleCacheTTL:       envDuration("RULE_CACHE_TTL", time.Minute),
		WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		WebhookTimeout:     envDuration("WEBHOOK_TIMEOUT", 10*time.Second),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
