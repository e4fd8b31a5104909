package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/app"
	"github.com/geoagent/geoagent/internal/config"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/tools"
)

func testConfig() config.Config {
	return config.Config{
		LogLevel:    "debug",
		OpenWeather: config.OpenWeatherConfig{APIKey: "ow"},
		ORS:         config.ORSConfig{APIKey: "ors"},
		OSM:         config.OSMConfig{UserAgent: "geoagent-test"},
		LLM:         config.LLMConfig{APIKey: "llm"},
		HTTP:        config.HTTPConfig{Timeout: 5 * time.Second},
	}
}

func TestToolSet(t *testing.T) {
	a := app.New(testConfig(), zerolog.Nop())
	defer a.Close()

	tests := []struct {
		name   string
		count  int
		domain string
	}{
		{app.ToolSetWeather, 5, "weather"},
		{app.ToolSetMap, 9, "map services"},
		{app.ToolSetAll, 14, "weather and map services"},
		{"", 14, "weather and map services"},
		{" Weather ", 5, "weather"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, domain, examples, err := a.ToolSet(tt.name)
			require.NoError(t, err)
			assert.Len(t, set, tt.count)
			assert.Equal(t, tt.domain, domain)
			assert.NotEmpty(t, examples)

			_, err = tools.NewRegistry(set...)
			assert.NoError(t, err)
		})
	}

	_, _, _, err := a.ToolSet("astrology")
	assert.Error(t, err)
}

func TestComponents(t *testing.T) {
	assert.Equal(t, []config.Component{config.Weather, config.AirQuality}, app.Components(app.ToolSetWeather))
	assert.Contains(t, app.Components(app.ToolSetMap), config.Routing)
	assert.Len(t, app.Components(app.ToolSetAll), 5)
}

func TestNew_WiresUpstreams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "geoagent-test", r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"place_id":     1,
			"osm_type":     "node",
			"osm_id":       42,
			"lat":          "48.8584",
			"lon":          "2.2945",
			"display_name": "Tour Eiffel, Paris, France",
			"address":      map[string]string{"city": "Paris", "country": "France"},
		})
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.OSM.NominatimURL = server.URL
	a := app.New(cfg, zerolog.Nop())

	res, err := a.Geocoding.ReverseGeocode(context.Background(), 48.8584, 2.2945)
	require.NoError(t, err)
	assert.Equal(t, "Paris", res.City)

	h, ok := a.Health.Health("nominatim")
	require.True(t, ok)
	assert.Equal(t, uint32(1), h.Counts.Requests)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = a.Geocoding.ReverseGeocode(context.Background(), 48.8584, 2.2945)
	assert.ErrorIs(t, err, provider.ErrSessionClosed)
}

func TestNewLogger(t *testing.T) {
	log := app.NewLogger(config.Config{LogLevel: "warn"}, "geoagent-test", "dev")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	log = app.NewLogger(config.Config{LogLevel: "loud"}, "geoagent-test", "dev")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
