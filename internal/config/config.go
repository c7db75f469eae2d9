package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Session store
	RedisURL   string
	SessionTTL time.Duration

	// Collaborator backend
	LLMProvider         string
	VeniceAPIKey        string
	ModelName           string
	CollaboratorTimeout time.Duration

	// Combat determinism; 0 means a random seed per process
	DiceSeed int64
}

func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		LogLevel:            parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:            getEnv("REDIS_URL", ""),
		SessionTTL:          parseDuration(getEnv("SESSION_TTL", "24h")),
		LLMProvider:         getEnv("LLM_PROVIDER", "venice"),
		VeniceAPIKey:        getEnv("VENICE_API_KEY", ""),
		ModelName:           getEnv("MODEL_NAME", "llama-3.3-70b"),
		CollaboratorTimeout: parseDuration(getEnv("COLLABORATOR_TIMEOUT", "30s")),
		DiceSeed:            parseInt64(getEnv("DICE_SEED", "0")),
	}
}

func parseInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
