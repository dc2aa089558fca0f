package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestManager_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
searchad:
  api_key: file-api-key
  secret_key: file-secret
  customer_id: "3523257"
datalab:
  client_id: cid
  client_secret: csecret
http:
  timeout: 3s
  max_in_flight: 2
`)

	cfg, err := NewManager().Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file-api-key", cfg.SearchAd.APIKey)
	assert.Equal(t, "3523257", cfg.SearchAd.CustomerID)
	assert.True(t, cfg.SearchAd.Enabled())
	assert.True(t, cfg.DataLab.Enabled())
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.HTTP.MaxInFlight)
	assert.Equal(t, "https://api.searchad.naver.com", cfg.SearchAd.BaseURL)
	assert.Equal(t, 16, cfg.HTTP.Connection.MaxConnsPerHost)
	assert.NoError(t, RequireSearchAd(cfg))
}

func TestManager_EnvOverrides(t *testing.T) {
	t.Setenv("KEYWORD_SEARCHAD_SECRET_KEY", "env-secret")
	t.Setenv("KEYWORD_SERVER_PORT", "7070")

	cfg, err := NewManager().Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.SearchAd.SecretKey)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.ErrorIs(t, RequireSearchAd(cfg), ErrMissingSearchAd)
}

func TestManager_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"zero timeout", "http:\n  timeout: 0s\n"},
		{"zero in flight", "http:\n  max_in_flight: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager().Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestManager_Reload(t *testing.T) {
	m := NewManager()
	assert.Error(t, m.Reload(), "reload before load must fail")

	path := writeConfig(t, "server:\n  port: 8081\n")
	_, err := m.Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8082\n"), 0644))
	require.NoError(t, m.Reload())
	assert.Equal(t, 8082, m.GetConfig().Server.Port)
}

func TestManager_MissingFile(t *testing.T) {
	_, err := NewManager().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
