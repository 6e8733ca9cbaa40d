package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// DatabaseURL selects PostgreSQL for the room directory; when empty the
	// SQLite fallback at SQLitePath is used instead.
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	// ProbeInterval paces the connectivity monitor.
	ProbeInterval time.Duration

	// SeedRooms controls default-room seeding at startup.
	SeedRooms bool
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/rait.db"),
		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ProbeInterval: getDuration("PROBE_INTERVAL", 5*time.Second),
		SeedRooms:     getEnv("SEED_ROOMS", "true") == "true",
	}

	// In production, require explicit backends
	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if os.Getenv("REDIS_URL") == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
