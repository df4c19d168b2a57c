// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string
	AccessTokenTTL  time.Duration
	SessionTTL      time.Duration

	GoogleClientID string

	CORSAllowAll bool
	CORSOrigins  []string
	AppBaseURL   string

	RedisURL         string
	AsynqQueue       string
	AsynqConcurrency int

	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	MinioBucketCalls string
	MaxUploadBytes   int64

	GeminiAPIKey       string
	GeminiModel        string
	TranscriptionModel string

	InstructionSetsPath string

	EmailEnabled  bool
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:  mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		SessionTTL:      mustDuration(getEnv("SESSION_TTL", "720h")),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		CORSAllowAll: containsWildcard(corsOrigins),
		CORSOrigins:  corsOrigins,
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:3000"),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		MinioEndpoint:    getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:      strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketCalls: getEnv("MINIO_BUCKET_CALLS", "call-uploads"),
		MaxUploadBytes:   mustInt64(getEnv("MAX_UPLOAD_BYTES", "52428800")),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "gemini-2.0-flash"),

		InstructionSetsPath: getEnv("INSTRUCTION_SETS_PATH", "config/instruction_sets.yaml"),

		EmailEnabled:  strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "SalesClutch"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFrom == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}

	return cfg, nil
}

// GetJWTAccessSecret satisfies httpkit.JWTConfig.
func (c *Config) GetJWTAccessSecret() string {
	return c.JWTAccessSecret
}

// IsMinioEnabled reports whether object storage is configured.
func (c *Config) IsMinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

// Getters below satisfy the storage adapter's Config interface.

func (c *Config) GetMinioEndpoint() string { return c.MinioEndpoint }

func (c *Config) GetMinioAccessKey() string { return c.MinioAccessKey }

func (c *Config) GetMinioSecretKey() string { return c.MinioSecretKey }

func (c *Config) GetMinioUseSSL() bool { return c.MinioUseSSL }

func (c *Config) GetMinioBucket() string { return c.MinioBucketCalls }

func (c *Config) GetMaxUploadBytes() int64 { return c.MaxUploadBytes }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
