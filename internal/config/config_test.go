package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "asteritime.db", cfg.DatabaseURL)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, "21:00", cfg.ReportTime)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.ReportInterval())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("JWT_EXPIRATION", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "mysql", cfg.DatabaseDriver)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	content := "JWT_SECRET=from-file\nSERVER_PORT=7000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "7000", cfg.ServerPort)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "  ")

	_, err := Load(t.TempDir())

	assert.Error(t, err)
}

func TestParseInterval(t *testing.T) {
	tests := map[string]time.Duration{
		"":    0,
		"5":   5 * time.Hour,
		"1.5": 90 * time.Minute,
		"-1":  0,
		"abc": 0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseInterval(raw), raw)
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(Config{LogLevel: "debug", LogFile: filepath.Join(dir, "app.log")})
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	_, err = NewLogger(Config{LogLevel: "loud"})
	assert.Error(t, err)
}
