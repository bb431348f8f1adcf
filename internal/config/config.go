package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort       int
	DatabasePath     string
	JWTSecret        string
	TokenTTLHours    int
	AllowedOrigin    string
	ReminderSchedule string // cron expression for the deadline watcher
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
	}

	ttlStr := getEnv("TOKEN_TTL_HOURS", "24")
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS value %q: %w", ttlStr, err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		ServerPort:       port,
		DatabasePath:     getEnv("DATABASE_PATH", "./taskhive.db"),
		JWTSecret:        secret,
		TokenTTLHours:    ttl,
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "* * * * *"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
