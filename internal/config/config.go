package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/urlclick/shortener/internal/cache"
	"github.com/urlclick/shortener/internal/geoip"
	"github.com/urlclick/shortener/internal/logger"
	"github.com/urlclick/shortener/internal/repository"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  repository.Config
	Redis     cache.Config
	Geo       geoip.Config
	App       AppConfig
	RateLimit RateLimitConfig
	Log       logger.Config
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AppConfig holds application-specific settings
type AppConfig struct {
	BaseURL     string
	Environment string // "development", "production"
}

// RateLimitConfig holds rate limiter settings
type RateLimitConfig struct {
	Enabled  bool
	Rate     int
	Burst    int
	Interval time.Duration
	Cleanup  time.Duration
}

// Load reads configuration from the environment. A .env file is
// honored when present (development convenience).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "5000"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: repository.Config{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DB_DSN", "./data/urls.db"),
		},
		Redis: cache.Config{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			TTL:      getDurationEnv("CACHE_TTL", cache.DefaultTTL),
		},
		Geo: geoip.Config{
			Endpoint: getEnv("GEOIP_ENDPOINT", geoip.DefaultEndpoint),
			Timeout:  getDurationEnv("GEOIP_TIMEOUT", 2*time.Second),
		},
		App: AppConfig{
			BaseURL:     getEnv("BASE_URL", ""),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getBoolEnv("RATE_LIMIT_ENABLED", false),
			Rate:     getIntEnv("RATE_LIMIT_RATE", 10),
			Burst:    getIntEnv("RATE_LIMIT_BURST", 20),
			Interval: getDurationEnv("RATE_LIMIT_INTERVAL", time.Second),
			Cleanup:  getDurationEnv("RATE_LIMIT_CLEANUP", 5*time.Minute),
		},
		Log: logger.Config{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	// Set default BaseURL if not provided
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Server.Port)
	}
	cfg.Log.Environment = cfg.App.Environment

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s (must be 1-65535)", c.Server.Port)
	}

	if c.Database.Driver != "sqlite3" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN cannot be empty")
	}

	if c.Redis.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}

	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"testing":     true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, production, or testing)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ============================================================
// HELPER FUNCTIONS
// ============================================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}
