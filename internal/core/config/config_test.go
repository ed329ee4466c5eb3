package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv() {
	os.Setenv("TELEMETRY_BASE_URL", "https://tracker.test/api/api.php")
	os.Setenv("JWT_SECRET", "test-secret")
}

func unsetRequiredEnv() {
	os.Unsetenv("TELEMETRY_BASE_URL")
	os.Unsetenv("JWT_SECRET")
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")

	setRequiredEnv()
	defer unsetRequiredEnv()

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "zone_id", cfg.Trips.LegMatchMode)
	assert.Equal(t, "exports", cfg.Reports.ExportDir)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("TRIP_LEG_MATCH_MODE", "zone_name")
	setRequiredEnv()
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("TRIP_LEG_MATCH_MODE")
		unsetRequiredEnv()
	}()

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "https://tracker.test/api/api.php", cfg.Telemetry.BaseURL)
	assert.Equal(t, "zone_name", cfg.Trips.LegMatchMode)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
TELEMETRY_BASE_URL=https://staging.tracker.test/api/api.php
JWT_SECRET=staging-secret
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "staging-secret", cfg.Auth.JWTSecret)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	unsetRequiredEnv()

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

// TestLoad_InvalidMatchMode verifies the leg match mode is validated.
func TestLoad_InvalidMatchMode(t *testing.T) {
	os.Setenv("TRIP_LEG_MATCH_MODE", "vin")
	setRequiredEnv()
	defer func() {
		os.Unsetenv("TRIP_LEG_MATCH_MODE")
		unsetRequiredEnv()
	}()

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TRIP_LEG_MATCH_MODE")
}
