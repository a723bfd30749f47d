package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=perfume port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	StoreDriver string // postgres | memory
	CORSOrigins string

	JWTSecret         string
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash; empty disables login

	RemoteTimeout    time.Duration
	CacheTTL         time.Duration
	CacheRefreshSpec string // cron spec, empty disables the refresh job

	RedisURL      string
	RedisPassword string
	RedisDB       int

	LogMode string // development | production
	LogFile string
}

func Load() *Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		StoreDriver:       getEnv("STORE_DRIVER", "postgres"),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		RemoteTimeout:     getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
		CacheTTL:          getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheRefreshSpec:  getEnv("CACHE_REFRESH_SPEC", "@every 10m"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		LogMode:           getEnv("LOG_MODE", "development"),
		LogFile:           getEnv("LOG_FILE", ""),
	}

	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET must be at least 32 characters")
	}
	if cfg.JWTSecret == "" || cfg.AdminPasswordHash == "" {
		log.Println("[WARN] JWT_SECRET or ADMIN_PASSWORD_HASH not set, API runs without authentication")
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is using the default value, set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == "http://localhost:3000" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is using the default value, set your own domain for production")
	}

	return cfg
}

// AuthEnabled reports whether the login endpoint and JWT middleware are active.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
