package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr                   string
	DatabaseURL            string
	Env                    string
	CORSAllowedOrigins     []string
	APIMaxBodyBytes        int64
	ImportMaxFileBytes     int64
	ImportMaxRows          int
	ImportWorkers          int
	ImportRateLimitPerMin  int
	DefaultCompanyID       uuid.UUID
	PlaceholderCompanyName string
	PriceImportAllowZero   bool
	DefaultCurrency        string
	JWTSecret              string
	JWTIssuer              string
	RedisURL               string
	AnalyticsCacheTTL      time.Duration
	ImportArchiveBucket    string
	ImportArchiveEndpoint  string
	AWSRegion              string
	ReadHeaderTimeout      time.Duration
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	IdleTimeout            time.Duration
	RateLimitMaxIPs        int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:                   getEnv("API_ADDR", ":8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		Env:                    getEnv("APP_ENV", "dev"),
		CORSAllowedOrigins:     getEnvCSV("CORS_ALLOWED_ORIGINS", []string{"*"}),
		APIMaxBodyBytes:        int64(getEnvInt("API_MAX_BODY_MB", 2)) * 1024 * 1024,
		ImportMaxFileBytes:     int64(getEnvInt("IMPORT_MAX_FILE_MB", 25)) * 1024 * 1024,
		ImportMaxRows:          getEnvInt("IMPORT_MAX_ROWS", 5000),
		ImportWorkers:          getEnvInt("IMPORT_WORKERS", 1),
		ImportRateLimitPerMin:  getEnvInt("IMPORT_RATE_LIMIT_PER_MIN", 30),
		PlaceholderCompanyName: getEnv("PLACEHOLDER_COMPANY_NAME", "Imported company"),
		PriceImportAllowZero:   getEnvBool("PRICE_IMPORT_ALLOW_ZERO", false),
		DefaultCurrency:        strings.ToUpper(getEnv("DEFAULT_CURRENCY", "EUR")),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTIssuer:              os.Getenv("JWT_ISSUER"),
		RedisURL:               os.Getenv("REDIS_URL"),
		AnalyticsCacheTTL:      time.Duration(getEnvInt("ANALYTICS_CACHE_TTL_SEC", 300)) * time.Second,
		ImportArchiveBucket:    os.Getenv("IMPORT_ARCHIVE_BUCKET"),
		ImportArchiveEndpoint:  os.Getenv("IMPORT_ARCHIVE_ENDPOINT"),
		AWSRegion:              os.Getenv("AWS_REGION"),
		ReadHeaderTimeout:      time.Duration(getEnvInt("API_READ_HEADER_TIMEOUT_SEC", 5)) * time.Second,
		ReadTimeout:            time.Duration(getEnvInt("API_READ_TIMEOUT_SEC", 30)) * time.Second,
		WriteTimeout:           time.Duration(getEnvInt("API_WRITE_TIMEOUT_SEC", 120)) * time.Second,
		IdleTimeout:            time.Duration(getEnvInt("API_IDLE_TIMEOUT_SEC", 60)) * time.Second,
		RateLimitMaxIPs:        getEnvInt("RATE_LIMIT_MAX_IPS", 10000),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	if raw := strings.TrimSpace(os.Getenv("DEFAULT_COMPANY_ID")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("DEFAULT_COMPANY_ID: %w", err)
		}
		cfg.DefaultCompanyID = id
	}

	if cfg.ImportWorkers < 1 {
		cfg.ImportWorkers = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvCSV(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
