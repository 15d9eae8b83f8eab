// Package config holds application configuration and the shared database and
// cache handles. Settings come from environment variables, with .env support
// via godotenv in main.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string // "development" | "production"

	MongoURI  string
	Database  string
	RedisAddr string
	RedisPass string

	JWTSecret      string
	AllowedOrigins []string

	// Media upload policy. Size limits and accepted kinds are configuration,
	// not business logic.
	UploadDir      string
	MaxUploadBytes int64
	MaxUploadFiles int

	// Per-user daily issue creation cap (0 disables the limiter).
	IssuesPerDay int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("GO_ENV", "development"),

		MongoURI:  os.Getenv("MONGODB_URI"),
		Database:  getEnv("MONGODB_DATABASE", "urbaneye"),
		RedisAddr: getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
		MaxUploadFiles: int(getEnvInt64("MAX_UPLOAD_FILES", 10)),

		IssuesPerDay: int(getEnvInt64("ISSUES_PER_DAY", 20)),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
