package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/config"
	"github.com/geoagent/geoagent/internal/llm"
)

var keys = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_PRETTY",
	"OPENWEATHER_API_KEY", "OPENWEATHER_BASE_URL", "OPENWEATHER_GEO_URL",
	"ORS_API_KEY", "ORS_BASE_URL",
	"NOMINATIM_BASE_URL", "OVERPASS_URL", "OSM_USER_AGENT", "OSM_COUNTRY_CODES",
	"OPENROUTER_API_KEY", "LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_REFERER", "LLM_TITLE",
	"HTTP_TIMEOUT", "HTTP_MAX_RETRIES", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, uint64(0), cfg.HTTP.MaxRetries)
	assert.Equal(t, llm.DefaultBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, llm.DefaultModel, cfg.LLM.Model)
	assert.NotEmpty(t, cfg.OSM.UserAgent)
	assert.Nil(t, cfg.OSM.CountryCodes)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
}

func TestFromEnv_Values(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("ORS_API_KEY", "ors-key")
	t.Setenv("OSM_COUNTRY_CODES", " FR, de ,,")
	t.Setenv("LLM_API_KEY", "llm-key")
	t.Setenv("LLM_MODEL", "meta-llama/llama-3.1-8b-instruct:free")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("HTTP_MAX_RETRIES", "2")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "ow-key", cfg.OpenWeather.APIKey)
	assert.Equal(t, "ors-key", cfg.ORS.APIKey)
	assert.Equal(t, []string{"fr", "de"}, cfg.OSM.CountryCodes)
	assert.Equal(t, "llm-key", cfg.LLM.APIKey)
	assert.Equal(t, "meta-llama/llama-3.1-8b-instruct:free", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, uint64(2), cfg.HTTP.MaxRetries)
	assert.True(t, cfg.LogPretty)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestFromEnv_OpenRouterKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("LLM_API_KEY", "llm-key")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "or-key", cfg.LLM.APIKey)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"HTTP_TIMEOUT", "soon"},
		{"HTTP_TIMEOUT", "-1s"},
		{"HTTP_MAX_RETRIES", "-1"},
		{"LOG_PRETTY", "maybe"},
		{"OTEL_ENABLED", "perhaps"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("ORS_API_KEY")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ORS_API_KEY=from-dotenv\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("ORS_API_KEY") })

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.ORS.APIKey)
}

func TestLoad_NoDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := config.Load()
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	cfg, err := config.FromEnv()
	require.NoError(t, err)

	err = cfg.Validate(config.Weather, config.Routing, config.Agent, config.Geocoding)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_API_KEY")
	assert.Contains(t, err.Error(), "ORS_API_KEY")
	assert.Contains(t, err.Error(), "OPENROUTER_API_KEY")
	assert.NotContains(t, err.Error(), "OSM_USER_AGENT")

	cfg.OpenWeather.APIKey = "k"
	cfg.ORS.APIKey = "k"
	cfg.LLM.APIKey = "k"
	assert.NoError(t, cfg.Validate(config.Weather, config.AirQuality, config.Routing, config.Agent, config.POI))

	assert.Error(t, cfg.Validate(config.Component("teleport")))
}
