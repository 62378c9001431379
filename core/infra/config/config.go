package config

import (
	"os"
	"strings"
)

const (
	defaultNATSURL     = "nats://localhost:4222"
	defaultRedisURL    = "redis://localhost:6379"
	defaultConfigPath  = "config/pathpack.yaml"
	defaultMetricsAddr = ":9102"
	defaultLocale      = "en_US"
	envNATSURL         = "NATS_URL"
	envRedisURL        = "REDIS_URL"
	envConfigPath      = "PATHPACK_CONFIG_PATH"
	envMetricsAddr     = "PATHPACK_METRICS_ADDR"
	envLocale          = "PATHPACK_LOCALE"
)

// Config holds runtime configuration shared by the CLI and the worker.
type Config struct {
	NatsURL     string
	RedisURL    string
	ConfigPath  string
	MetricsAddr string
	Locale      string
}

// Load returns configuration using environment variables with sane defaults.
func Load() *Config {
	return &Config{
		NatsURL:     envOr(envNATSURL, defaultNATSURL),
		RedisURL:    envOr(envRedisURL, defaultRedisURL),
		ConfigPath:  envOr(envConfigPath, defaultConfigPath),
		MetricsAddr: envOr(envMetricsAddr, defaultMetricsAddr),
		Locale:      envOr(envLocale, defaultLocale),
	}
}

func envOr(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
