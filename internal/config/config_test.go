package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "seopulse.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 25000, cfg.Ingest.RowLimit)
	assert.Equal(t, 480, cfg.Ingest.BatchSize)
	assert.Equal(t, 5, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 4, cfg.Tiering.Workers)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEOPULSE_STORE_DRIVER", "postgres")
	t.Setenv("SEOPULSE_SERVER_TRIGGER_SECRET", "s3cret")
	t.Setenv("SEOPULSE_API_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "s3cret", cfg.Server.TriggerSecret)
	assert.Equal(t, "tok", cfg.API.Token)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
