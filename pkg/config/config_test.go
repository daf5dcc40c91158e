package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATA_PATH", "REDIS_DB", "DIRECTORY_CACHE_TTL", "BOARD_IDLE_TTL",
		"BOARD_EVICT_SPEC", "USAGE_RETENTION_DAYS", "CORS_ORIGINS", "ADMIN_USERNAME", "GIN_MODE"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "schedules.db", cfg.DataPath)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 5*time.Minute, cfg.DirectoryCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.BoardIdleTTL)
	assert.Equal(t, "@every 1m", cfg.BoardEvictSpec)
	assert.Equal(t, 90, cfg.UsageRetentionDays)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.True(t, cfg.Release())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("BOARD_IDLE_TTL", "10s")
	t.Setenv("DIRECTORY_CACHE_TTL", "garbage")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("GIN_MODE", "debug")

	cfg := FromEnv()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 10*time.Second, cfg.BoardIdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.DirectoryCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.Release())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-file\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cfg := Load()
	assert.Equal(t, "from-file", cfg.JWTSecret)
}
