// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDir      string `env:"LINGO_DB_DIR" envDefault:"./databases"`
	DefaultDB  string `env:"LINGO_DEFAULT_DB" envDefault:"default.db"`
	ServerHost string `env:"LINGO_SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort int    `env:"LINGO_SERVER_PORT" envDefault:"5000"`
	Env        string `env:"LINGO_ENV" envDefault:"development"`
	LogLevel   string `env:"LINGO_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LINGO_LOG_FORMAT" envDefault:"text"`

	// Cache configuration. Exports use Redis when RedisURL is set.
	RedisURL     string        `env:"LINGO_REDIS_URL"`
	CachePrefix  string        `env:"LINGO_CACHE_PREFIX" envDefault:"lingotable:"`
	CacheTTL     time.Duration `env:"LINGO_CACHE_TTL" envDefault:"10m"`
	CacheMaxSize int           `env:"LINGO_CACHE_MAX_SIZE" envDefault:"1000"`

	// HTTP configuration
	CORSOrigins    []string      `env:"LINGO_CORS_ORIGINS" envDefault:"*" envSeparator:","`
	RateLimitRPS   float64       `env:"LINGO_RATE_LIMIT_RPS" envDefault:"0"` // 0 disables rate limiting
	RateLimitBurst int           `env:"LINGO_RATE_LIMIT_BURST" envDefault:"20"`
	RequestTimeout time.Duration `env:"LINGO_REQUEST_TIMEOUT" envDefault:"30s"`
	MetricsEnabled bool          `env:"LINGO_METRICS_ENABLED" envDefault:"true"`

	// Operation log retention
	LogRetentionDays     int    `env:"LINGO_LOG_RETENTION_DAYS" envDefault:"0"` // 0 keeps logs forever
	LogRetentionSchedule string `env:"LINGO_LOG_RETENTION_SCHEDULE" envDefault:"@daily"`

	// Seed newly created databases with demo entries
	DemoMode bool `env:"LINGO_DEMO_MODE" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// RateLimitEnabled returns true if API requests are rate limited.
func (c Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// LogRetentionEnabled returns true if old operation logs are pruned.
func (c Config) LogRetentionEnabled() bool {
	return c.LogRetentionDays > 0
}

// LogRetention returns the age after which operation logs are pruned.
func (c Config) LogRetention() time.Duration {
	return time.Duration(c.LogRetentionDays) * 24 * time.Hour
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DBDir) == "" {
		return fmt.Errorf("LINGO_DB_DIR must not be empty")
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("LINGO_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LINGO_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("LINGO_RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitEnabled() && c.RateLimitBurst < 1 {
		return fmt.Errorf("LINGO_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	if c.LogRetentionDays < 0 {
		return fmt.Errorf("LINGO_LOG_RETENTION_DAYS must not be negative")
	}
	return nil
}
