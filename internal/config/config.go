package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreFile  = "file"
	SessionStoreRedis = "redis"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL  string        `env:"API_BASE_URL"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`

	// List polling
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"4s"`

	// Session persistence: "file" or "redis"
	SessionStore string        `env:"SESSION_STORE" envDefault:"file"`
	SessionFile  string        `env:"SESSION_FILE" envDefault:".deskhub_session.json"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Redis Config (used when SESSION_STORE=redis)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Lifecycle policy switches. The backend enforces neither, so both are
	// client policy and configurable.
	AllowResolvedRevert  bool `env:"ALLOW_RESOLVED_REVERT" envDefault:"false"`
	LockEditsAfterReview bool `env:"LOCK_EDITS_AFTER_REVIEW" envDefault:"false"`
}

// LoadConfig loads configuration from environment variables and an optional .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		APIBaseURL:           os.Getenv("API_BASE_URL"),
		HTTPTimeout:          getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		PollInterval:         getEnvAsDuration("POLL_INTERVAL", 4*time.Second),
		SessionStore:         getEnv("SESSION_STORE", SessionStoreFile),
		SessionFile:          getEnv("SESSION_FILE", ".deskhub_session.json"),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		AllowResolvedRevert:  getEnvAsBool("ALLOW_RESOLVED_REVERT", false),
		LockEditsAfterReview: getEnvAsBool("LOCK_EDITS_AFTER_REVIEW", false),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL environment variable is required")
	}

	if cfg.SessionStore != SessionStoreFile && cfg.SessionStore != SessionStoreRedis {
		return nil, fmt.Errorf("SESSION_STORE must be %q or %q", SessionStoreFile, SessionStoreRedis)
	}

	return cfg, nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable value as int or a default.
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool returns the environment variable value as bool or a default.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration returns the environment variable value as time.Duration or a default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
