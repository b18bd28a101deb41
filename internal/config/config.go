// Package config читает настройки сервиса из окружения.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port           string        `env:"PORT" env-default:"8080"`
	Storage        string        `env:"STORAGE" env-default:"in-memory"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	RedisURL       string        `env:"REDIS_URL"`
	AuthorCacheTTL time.Duration `env:"AUTHOR_CACHE_TTL" env-default:"5m"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	Seed           bool          `env:"SEED" env-default:"true"`
}

// Load читает конфигурацию. Непустой storageOverride (флаг -storage) важнее STORAGE.
func Load(storageOverride string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if storageOverride != "" {
		cfg.Storage = storageOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageInMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q (in-memory or postgres)", c.Storage)
	}
	if c.AuthorCacheTTL <= 0 {
		return fmt.Errorf("AUTHOR_CACHE_TTL must be positive, got %s", c.AuthorCacheTTL)
	}
	return nil
}

// Level переводит LOG_LEVEL в slog.Level; неизвестные значения дают info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
