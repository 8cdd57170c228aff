package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func loadClean(t *testing.T) (*Config, []string) {
	t.Helper()
	// Isolate from the host environment.
	t.Setenv("CONFIG_FILE", "testdata/empty.yaml")
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")

	cfg, warnings, err := LoadConfig()
	require.NoError(t, err)
	return cfg, warnings
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, warnings := loadClean(t)

	assert.Empty(t, warnings)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(512*1024), cfg.WebSocket.MaxMessageSize)
	assert.Equal(t, 64, cfg.WebSocket.SendBuffer)
	assert.Less(t, cfg.WebSocket.PingPeriod, cfg.WebSocket.PongWait)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestPortEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/empty.yaml")
	t.Setenv("PORT", "9191")

	cfg, warnings, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestPortEnvUnparseableFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/empty.yaml")
	t.Setenv("PORT", "not-a-port")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestPortEnvUnparseableOverridesFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/app.yaml")
	t.Setenv("PORT", "not-a-port")

	// A set-but-broken PORT means the default, not the file value.
	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestPortOutOfRangeIsFixed(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/empty.yaml")
	t.Setenv("PORT", "70000")

	cfg, warnings, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.NotEmpty(t, warnings)
}

func TestConfigFileValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/app.yaml")
	t.Setenv("PORT", "")

	cfg, warnings, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 128, cfg.WebSocket.SendBuffer)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestInvalidLoggingValuesAreFixed(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/bad.yaml")
	t.Setenv("PORT", "")

	cfg, warnings, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.GreaterOrEqual(t, len(warnings), 2)
}

func TestPingPeriodAdjustedBelowPongWait(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/bad.yaml")
	t.Setenv("PORT", "")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Less(t, cfg.WebSocket.PingPeriod, cfg.WebSocket.PongWait)
}

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, GetLogLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, GetLogLevel("WARN"))
	assert.Equal(t, zapcore.FatalLevel, GetLogLevel("fatal"))
	assert.Equal(t, zapcore.InfoLevel, GetLogLevel("bogus"))
}
