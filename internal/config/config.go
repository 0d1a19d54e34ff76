package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// DefaultJWTSecret is the fallback signing key. It is only acceptable outside
// production.
const DefaultJWTSecret = "your-super-secret-jwt-key-change-this-in-production"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"3000" validate:"required"`
	Env  string `envconfig:"ENV" default:"development" validate:"oneof=development staging production"`

	// JWT configuration
	JWT JWTConfig

	// User directory configuration
	Directory DirectoryConfig

	// Optional backing stores; empty disables the feature that needs them
	RedisURL    string `envconfig:"REDIS_URL"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// CORS configuration
	CORS CORSConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret string `envconfig:"JWT_SECRET" default:"your-super-secret-jwt-key-change-this-in-production" validate:"required"`
}

// DirectoryConfig holds the remote user directory configuration
type DirectoryConfig struct {
	Endpoint   string        `envconfig:"API_ENDPOINT" default:"https://mshahrani.website" validate:"required,url"`
	Timeout    time.Duration `envconfig:"DIRECTORY_TIMEOUT" default:"10s" validate:"gt=0"`
	MaxRetries int           `envconfig:"DIRECTORY_MAX_RETRIES" default:"2" validate:"min=0,max=5"`
	CacheSize  int           `envconfig:"DIRECTORY_CACHE_SIZE" default:"256" validate:"min=0"`
	CacheTTL   time.Duration `envconfig:"DIRECTORY_CACHE_TTL" default:"1m" validate:"min=0"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Window          time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10m" validate:"gt=0"`
	MaxAttempts     int           `envconfig:"RATE_LIMIT_MAX_ATTEMPTS" default:"5" validate:"min=1"`
	LockoutDuration time.Duration `envconfig:"RATE_LIMIT_LOCKOUT_DURATION" default:"15m" validate:"gt=0"`
}

// ErrDefaultSecret is returned when production runs with the fallback key
var ErrDefaultSecret = errors.New("JWT_SECRET must be set in production")

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and production safety rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.IsProduction() && c.JWT.Secret == DefaultJWTSecret {
		return ErrDefaultSecret
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RateLimitEnabled reports whether a Redis URL was configured
func (c *Config) RateLimitEnabled() bool {
	return c.RedisURL != ""
}

// AttemptLogEnabled reports whether a database URL was configured
func (c *Config) AttemptLogEnabled() bool {
	return c.DatabaseURL != ""
}
