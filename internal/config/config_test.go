package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DoyleJ11/jankenpon-server/internal/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var keys = []string{
	"LISTEN_ADDR", "HTTP_ADDR", "LOG_LEVEL", "LOG_DEV", "ROUND_SECONDS", "ROUND_TICK",
	"OUTBOX_SIZE", "IDLE_TIMEOUT", "WRITE_TIMEOUT", "TEARDOWN_POLICY", "WS_ORIGINS",
}

// isolate runs the test in an empty directory with every config key cleared.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		ListenAddr:   ":8094",
		HTTPAddr:     ":8095",
		LogLevel:     "info",
		RoundSeconds: 10,
		RoundTick:    time.Second,
		OutboxSize:   64,
		Teardown:     hub.TeardownMember,
		WriteTimeout: 5 * time.Second,
	}, cfg)

	hc := cfg.Hub()
	assert.Equal(t, 10, hc.Round.Seconds)
	assert.Equal(t, 64, hc.OutboxSize)
}

func TestLoad_FromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("ROUND_SECONDS", "3")
	t.Setenv("ROUND_TICK", "250ms")
	t.Setenv("IDLE_TIMEOUT", "1m")
	t.Setenv("TEARDOWN_POLICY", "master")
	t.Setenv("WS_ORIGINS", "localhost:*, example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.True(t, cfg.LogDev)
	assert.Equal(t, 3, cfg.RoundSeconds)
	assert.Equal(t, 250*time.Millisecond, cfg.RoundTick)
	assert.Equal(t, time.Minute, cfg.Session().IdleTimeout)
	assert.Equal(t, hub.TeardownMaster, cfg.Teardown)
	assert.Equal(t, []string{"localhost:*", "example.com"}, cfg.WSOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("ROUND_SECONDS=7\nLOG_LEVEL=debug\n"), 0o600))
	// godotenv never overrides a variable that is already set, and an empty
	// value counts as set, so unset the ones the file provides.
	require.NoError(t, os.Unsetenv("ROUND_SECONDS"))
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))
	t.Cleanup(func() {
		os.Unsetenv("ROUND_SECONDS")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RoundSeconds)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ReportsEveryInvalidValue(t *testing.T) {
	isolate(t)
	t.Setenv("ROUND_SECONDS", "ten")
	t.Setenv("ROUND_TICK", "0s")
	t.Setenv("OUTBOX_SIZE", "-1")
	t.Setenv("TEARDOWN_POLICY", "nobody")

	_, err := Load()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "ROUND_SECONDS")
	assert.Contains(t, err.Error(), "teardown policy")
}
