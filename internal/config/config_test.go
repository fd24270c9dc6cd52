package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromDefaultFile(t *testing.T) {
	cfg, err := LoadConfig(".")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Database.RetryMaxElapsed)
	assert.Equal(t, "gpt-4o-mini", cfg.Assistant.Model)
	assert.InDelta(t, 0.7, cfg.Assistant.Temperature, 0.0001)
	assert.Equal(t, "0 0 1 * *", cfg.Scheduler.MinutesResetSpec)
	assert.Equal(t, 4, cfg.Notifications.Pool.PoolSize)
	assert.Equal(t, time.Second, cfg.Notifications.Pool.MaxBlock)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:?cache=shared")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("VAPI_WEBHOOK_SECRET", "s3cret")
	t.Setenv("NATS_ENABLED", "true")

	cfg, err := LoadConfig(".")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:?cache=shared", cfg.Database.DSN)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.WebhookSecret)
	assert.True(t, cfg.NATS.Enabled)
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := LoadConfig(filepath.Join(dir, "missing"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "11labs", cfg.Assistant.VoiceProvider)
	assert.Equal(t, "v1.voice", cfg.NATS.SubjectPrefix)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "mysql"
	cfg.Server.Port = 8080
	assert.ErrorContains(t, cfg.Validate(), "unsupported database driver")

	cfg.Database.Driver = "sqlite"
	cfg.Notifications.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "apiKey")

	cfg.Notifications.Resend.APIKey = "re_test"
	assert.NoError(t, cfg.Validate())
}
