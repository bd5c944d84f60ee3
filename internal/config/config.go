package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string   `env:"PORT" env-default:"8080"`
	Environment    string   `env:"ENVIRONMENT" env-default:"production"`
	LogLevel       string   `env:"LOG_LEVEL" env-default:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	// DatabaseURL empty selects the in-memory poll store
	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" env-default:"10"`

	// RedisURL empty disables the poll read cache
	RedisURL     string        `env:"REDIS_URL"`
	PollCacheTTL time.Duration `env:"POLL_CACHE_TTL" env-default:"30s"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" env-default:"kukkee"`

	// PollCommitAttempts bounds retries of a conflicting poll write
	PollCommitAttempts int `env:"POLL_COMMIT_ATTEMPTS" env-default:"32"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.AllowedOrigins = parseOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.IsProduction() {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
	}
	if c.PollCommitAttempts < 1 {
		errs = append(errs, fmt.Errorf("POLL_COMMIT_ATTEMPTS must be positive, got %d", c.PollCommitAttempts))
	}
	if c.PollCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("POLL_CACHE_TTL must be positive, got %s", c.PollCacheTTL))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the server runs with production guarantees
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// parseOrigins trims entries and drops empty ones
func parseOrigins(origins []string) []string {
	result := make([]string, 0, len(origins))
	for _, part := range origins {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
