package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "phx_test")
	t.Setenv(EnvProjectID, "12345")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "phx_test", cfg.PostHog.APIKey)
	assert.Equal(t, "12345", cfg.PostHog.ProjectID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2, cfg.PostHog.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.PostHog.Timeout)
	assert.Equal(t, 3, cfg.PostHog.MaxAttempts)
	assert.Equal(t, time.Second, cfg.PostHog.RetryBaseDelay)
	assert.Equal(t, "/ph", cfg.Proxy.Prefix)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvProjectID, "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAPIKey)
	assert.Contains(t, err.Error(), EnvProjectID)
	assert.Contains(t, err.Error(), "PostHog.APIKey: APIKey is a required field")
}

func TestLoadFileThenEnvironment(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/etc/insights/insights.yaml"
	content := `
Server:
  Addr: ":9000"
PostHog:
  APIKey: from-file
  ProjectID: "1"
  MaxConcurrent: 1
  Timeout: 5s
Proxy:
  Enabled: false
`
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o600))
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvProjectID, "2")

	cfg, err := LoadFS(fs, path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "from-file", cfg.PostHog.APIKey)
	assert.Equal(t, "2", cfg.PostHog.ProjectID)
	assert.Equal(t, 1, cfg.PostHog.MaxConcurrent)
	assert.Equal(t, 5*time.Second, cfg.PostHog.Timeout)
	assert.False(t, cfg.Proxy.Enabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"零并发", func(c *AppConfig) { c.PostHog.MaxConcurrent = 0 }},
		{"零尝试次数", func(c *AppConfig) { c.PostHog.MaxAttempts = 0 }},
		{"未知日志级别", func(c *AppConfig) { c.Log.Level = "verbose" }},
		{"转发前缀缺少斜杠", func(c *AppConfig) { c.Proxy.Prefix = "ph" }},
		{"转发缺少上报域名", func(c *AppConfig) { c.Proxy.IngestHost = "" }},
		{"非法 API 地址", func(c *AppConfig) { c.PostHog.APIHost = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.PostHog.APIKey = "k"
			cfg.PostHog.ProjectID = "p"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFS(afero.NewMemMapFs(), "/missing.yaml")
	assert.ErrorContains(t, err, "reading config file /missing.yaml")
}

func TestLoadInvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("Server: [\n"), 0o600))

	_, err := LoadFS(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "parsing config file /bad.yaml")
}

func TestOverridesAreValidated(t *testing.T) {
	t.Setenv(EnvAPIKey, "phx_test")
	t.Setenv(EnvProjectID, "12345")
	t.Setenv(EnvLogLevel, "")

	_, err := LoadFS(afero.NewMemMapFs(), "", WithLogLevel("verbose"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Log.Level: Level must be one of [debug info warn error]")

	cfg, err := LoadFS(afero.NewMemMapFs(), "", WithLogLevel("warn"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)

	// 空值不覆盖环境变量
	t.Setenv(EnvLogLevel, "error")
	cfg, err = LoadFS(afero.NewMemMapFs(), "", WithLogLevel(""))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestDefaultServerTimeouts(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Zero(t, cfg.Server.ReadTimeout)
	assert.Zero(t, cfg.Server.WriteTimeout)
}
