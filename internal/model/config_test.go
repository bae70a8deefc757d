package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Remote.PollInterval)
	assert.Equal(t, "admin", cfg.Bootstrap.AdminUsername)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultCachePath(), cfg.Cache.Path)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `remote:
  document_url: https://example.com/data.json
  contents_url: https://api.example.com/contents/data.json
  timeout: 3s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("TASKREWARDS_REMOTE_BRANCH", "main")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/data.json", cfg.Remote.DocumentURL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "main", cfg.Remote.Branch)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := &AppConfig{
		Remote:    RemoteConfig{DocumentURL: "https://example.com/d.json", CommitMessage: "sync", Timeout: 5 * time.Second, PollInterval: time.Minute},
		Cache:     CacheConfig{Path: "/tmp/cache.db"},
		Bootstrap: BootstrapConfig{AdminUsername: "root", AdminPassword: "secret"},
		Log:       LogConfig{Level: "warn", Format: "json", File: "stderr"},
	}
	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
