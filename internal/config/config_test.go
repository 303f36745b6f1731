package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DRIVEWAY_PROXY_URL", "https://proxy.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.example.com", cfg.ProxyURL)
	assert.Equal(t, "root", cfg.RootFolderID)
	assert.Equal(t, "My Drive", cfg.RootFolderName)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.StateDir)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_MissingProxyURL(t *testing.T) {
	t.Setenv("DRIVEWAY_PROXY_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DRIVEWAY_PROXY_URL", "https://proxy.example.com")
	t.Setenv("DRIVEWAY_ROOT_FOLDER_ID", "team-drive-1")
	t.Setenv("DRIVEWAY_ROOT_FOLDER_NAME", "Team Drive")
	t.Setenv("DRIVEWAY_HTTP_TIMEOUT", "5s")
	t.Setenv("DRIVEWAY_STATE_DIR", "/var/lib/driveway")
	t.Setenv("DRIVEWAY_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "team-drive-1", cfg.RootFolderID)
	assert.Equal(t, "Team Drive", cfg.RootFolderName)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/var/lib/driveway", cfg.StateDir)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	cfg := &Config{HTTPTimeout: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{HTTPTimeout: time.Second, MetricsEnabled: true}
	assert.Error(t, cfg.Validate())

	cfg = &Config{HTTPTimeout: time.Second, MetricsEnabled: true, MetricsAddr: ":9090"}
	assert.NoError(t, cfg.Validate())
}
