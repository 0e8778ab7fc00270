package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	UploadDir    string // Base path for uploaded files
	JWTSecret    string
	TokenTTL     time.Duration
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	ttlStr := getEnv("TOKEN_TTL_HOURS", "24")
	ttlHours, err := strconv.Atoi(ttlStr)
	if err != nil {
		return nil, err
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	return &Config{
		ServerPort:   port,
		DatabasePath: getEnv("DATABASE_PATH", "./accounts.db"),
		UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		JWTSecret:    secret,
		TokenTTL:     time.Duration(ttlHours) * time.Hour,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
