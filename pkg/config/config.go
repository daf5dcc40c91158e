package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment.
type Config struct {
	Port    string
	GinMode string

	DatabaseURL string
	DataPath    string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DirectoryCacheTTL time.Duration

	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string

	BoardIdleTTL       time.Duration
	BoardEvictSpec     string
	UsageRetentionDays int

	CORSOrigins []string
	LogLevel    string
}

// envPaths are tried in order; the first existing file is loaded.
var envPaths = []string{".env", "../.env", "../../.env"}

// Load reads an optional .env file and then the environment.
func Load() Config {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:               getString("PORT", "8000"),
		GinMode:            os.Getenv("GIN_MODE"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DataPath:           getString("DATA_PATH", "schedules.db"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		DirectoryCacheTTL:  getDuration("DIRECTORY_CACHE_TTL", 5*time.Minute),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		APIMasterSecret:    os.Getenv("API_MASTER_SECRET"),
		AdminUsername:      getString("ADMIN_USERNAME", "admin"),
		AdminPassword:      getString("ADMIN_PASSWORD", "admin123"),
		BoardIdleTTL:       getDuration("BOARD_IDLE_TTL", 30*time.Minute),
		BoardEvictSpec:     getString("BOARD_EVICT_SPEC", "@every 1m"),
		UsageRetentionDays: getInt("USAGE_RETENTION_DAYS", 90),
		CORSOrigins:        getList("CORS_ORIGINS", []string{"*"}),
		LogLevel:           getString("LOG_LEVEL", "info"),
	}
}

// Release reports whether gin should run in release mode.
// An unset GIN_MODE means release, as in production deployments.
func (c Config) Release() bool {
	return c.GinMode == "" || c.GinMode == "release"
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
