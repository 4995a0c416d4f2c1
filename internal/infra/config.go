package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Active try-on provider and its credentials.
	Provider          string
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModel       string
	FashnAPIKey       string
	FashnBaseURL      string
	FashnPollInterval time.Duration
	FashnMaxPolls     int

	// Document/blob store access.
	StoreAPIKey     string
	StoreEndpoint   string
	TenantID        string
	DatabaseID      string
	ResultBucketID  string
	ProductCacheTTL time.Duration

	// Client-side job status polling.
	JobPollInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Persistence settings are validated up front so a
// misconfigured deployment fails before it can touch any job record.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		Provider:          getEnv("TRYON_PROVIDER", "gemini"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		FashnAPIKey:       os.Getenv("FASHN_API_KEY"),
		FashnBaseURL:      getEnv("FASHN_BASE_URL", "https://api.fashn.ai/v1"),
		FashnPollInterval: time.Millisecond * time.Duration(getEnvInt("FASHN_POLL_INTERVAL_MS", 2000)),
		FashnMaxPolls:     getEnvInt("FASHN_MAX_POLLS", 90),
		StoreAPIKey:       os.Getenv("STORE_API_KEY"),
		StoreEndpoint:     getEnv("STORE_ENDPOINT", "https://cloud.appwrite.io/v1"),
		TenantID:          os.Getenv("TENANT_ID"),
		DatabaseID:        os.Getenv("DATABASE_ID"),
		ResultBucketID:    os.Getenv("RESULT_BUCKET_ID"),
		ProductCacheTTL:   time.Second * time.Duration(getEnvInt("PRODUCT_CACHE_TTL_SECONDS", 300)),
		JobPollInterval:   time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 3000)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	for _, required := range []struct {
		name  string
		value string
	}{
		{"STORE_API_KEY", cfg.StoreAPIKey},
		{"TENANT_ID", cfg.TenantID},
		{"DATABASE_ID", cfg.DatabaseID},
		{"RESULT_BUCKET_ID", cfg.ResultBucketID},
	} {
		if required.value == "" {
			return nil, fmt.Errorf("%s is required", required.name)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// Mask shortens a secret for safe logging: first four characters, a fixed
// filler, and the last two.
func Mask(value string) string {
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 6 {
		return "***"
	}
	return value[:4] + "****" + value[len(value)-2:]
}
