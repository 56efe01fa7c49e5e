package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 10, cfg.Model.MaxTurns)
	assert.Equal(t, "https://export.arxiv.org/api/query", cfg.Search.BaseURL)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
model:
  provider: anthropic
  max_turns: 6
cache:
  ttl: 30m
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 6, cfg.Model.MaxTurns)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PAPERSCOUT_SERVER_PORT", "7070")
	t.Setenv("PAPERSCOUT_MODEL_PROVIDER", "anthropic")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("PAPERSCOUT_MODEL_PROVIDER", "llamacpp")
	_, err := Load("")
	assert.Error(t, err)
}
