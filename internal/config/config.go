package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Origin    OriginConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Tables    TableConfig
	Admin     AdminConfig
	Usage     UsageConfig
}

type ServerConfig struct {
	Port        string
	Environment string // "development" or "production"
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r RedisConfig) GetRedisAddr() string {
	return r.Host + ":" + r.Port
}

type OriginConfig struct {
	Allowed         []string
	SubdomainSuffix string // one label is allowed in front of this suffix
	Permissive      bool   // accept any origin; for local development only
}

type RateLimitConfig struct {
	MinuteLimit   int
	MinuteWindow  time.Duration
	DayLimit      int
	DayWindow     time.Duration
	SweepInterval time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type TableConfig struct {
	Accounts  string
	Sessions  string
	UsageLogs string
}

type AdminConfig struct {
	JWTSecret   string
	ExpiryHours int
	// Optional bootstrap credentials for the first operator account.
	Email    string
	Password string
}

type UsageConfig struct {
	BufferSize int
}

// Load reads configuration from environment variables. Every option has a
// default so a bare environment still yields a runnable development config.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Postgres: PostgresConfig{
			DSN: getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=catalog_mcp port=5432 sslmode=disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Origin: OriginConfig{
			Allowed:         getEnvList("ALLOWED_ORIGINS", defaultOrigins),
			SubdomainSuffix: getEnv("ALLOWED_ORIGIN_SUFFIX", ".polyui.dev"),
			Permissive:      getEnvBool("ORIGIN_PERMISSIVE", false),
		},
		RateLimit: RateLimitConfig{
			MinuteLimit:   getEnvInt("RATE_LIMIT_PER_MINUTE", 1),
			MinuteWindow:  getEnvDuration("RATE_LIMIT_MINUTE_WINDOW", time.Minute),
			DayLimit:      getEnvInt("RATE_LIMIT_PER_DAY", 100),
			DayWindow:     getEnvDuration("RATE_LIMIT_DAY_WINDOW", 24*time.Hour),
			SweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 10*time.Minute),
		},
		Session: SessionConfig{
			TTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour),
		},
		Tables: TableConfig{
			Accounts:  getEnv("ACCOUNTS_TABLE", "accounts"),
			Sessions:  getEnv("SESSIONS_TABLE", "sessions"),
			UsageLogs: getEnv("USAGE_LOGS_TABLE", "usage_logs"),
		},
		Admin: AdminConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
			Email:       getEnv("ADMIN_EMAIL", ""),
			Password:    getEnv("ADMIN_PASSWORD", ""),
		},
		Usage: UsageConfig{
			BufferSize: getEnvInt("USAGE_BUFFER_SIZE", 1000),
		},
	}

	if cfg.Server.Environment == "production" && cfg.Admin.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

var defaultOrigins = []string{
	"https://polyui.dev",
	"https://www.polyui.dev",
	"http://localhost:3000",
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
