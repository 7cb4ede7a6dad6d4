package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Environment          string
	ServerPort           int
	StoreBackend         string // redis, postgres or memory
	RedisURL             string
	PostgresDSN          string
	DirectoryBaseURL     string
	HoldReaperIntervalS  int
	HoldMaxMinutes       int
	RetryMaxAttempts     int
	RetryInitialDelayMs  int
	LogLevel             string
	CORSAllowedOrigins   []string
	JWTSecret            string
	OperatorUsername     string
	OperatorPasswordHash string
	OTLPEndpoint         string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	reaperInterval, err := strconv.Atoi(getEnv("HOLD_REAPER_INTERVAL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLD_REAPER_INTERVAL_SECONDS: %w", err)
	}

	holdMax, err := strconv.Atoi(getEnv("HOLD_MAX_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLD_MAX_MINUTES: %w", err)
	}

	retryAttempts, err := strconv.Atoi(getEnv("RETRY_MAX_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_MAX_ATTEMPTS: %w", err)
	}

	retryDelay, err := strconv.Atoi(getEnv("RETRY_INITIAL_DELAY_MS", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETRY_INITIAL_DELAY_MS: %w", err)
	}

	backend := getEnv("STORE_BACKEND", "memory")
	switch backend {
	case "redis", "postgres", "memory":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be redis, postgres or memory", backend)
	}

	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		ServerPort:          port,
		StoreBackend:        backend,
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		PostgresDSN:         getEnv("POSTGRES_DSN", ""),
		DirectoryBaseURL:    getEnv("DIRECTORY_BASE_URL", ""),
		HoldReaperIntervalS: reaperInterval,
		HoldMaxMinutes:      holdMax,
		RetryMaxAttempts:    retryAttempts,
		RetryInitialDelayMs: retryDelay,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		OperatorUsername:     getEnv("OPERATOR_USERNAME", ""),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		OTLPEndpoint:         getEnv("OTLP_ENDPOINT", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
