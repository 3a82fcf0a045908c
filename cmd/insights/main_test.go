package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.PostHog.APIKey = "phx_test"
	cfg.PostHog.ProjectID = "1"
	return cfg
}

func TestInitServerMountsRoutes(t *testing.T) {
	srv := initServer(testConfig(), zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insights_upstream_in_flight 0")
}

func TestInitServerWithoutProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Proxy.Enabled = false
	srv := initServer(cfg, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ph/e/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitClientSharesConfiguredCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.PostHog.MaxConcurrent = 1

	client := initClient(cfg, zap.NewNop())
	assert.Equal(t, 1, client.Limiter().Capacity())
}

func TestLogLevelFlagIsValidated(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "phx_test")
	t.Setenv(config.EnvProjectID, "1")
	t.Setenv(config.EnvLogLevel, "")
	defer func(prev string) { logLevel = prev }(logLevel)

	logLevel = "verbose"
	_, err := loadConfig()
	assert.ErrorContains(t, err, "Log.Level")

	logLevel = "debug"
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}
