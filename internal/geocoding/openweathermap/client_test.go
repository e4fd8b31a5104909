package openweathermap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/geocoding/openweathermap"
	"github.com/geoagent/geoagent/internal/provider"
)

func newClient(url string) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{APIKey: "k", BaseURL: url, Logger: zerolog.Nop()})
}

func TestClient_Resolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direct", r.URL.Path)
		assert.Equal(t, "Paris,FR", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`[{"name": "Paris", "lat": 48.8589, "lon": 2.3200, "country": "FR", "state": "Ile-de-France"}]`))
	}))
	defer server.Close()

	c, err := newClient(server.URL).Resolve(context.Background(), "Paris,FR")
	require.NoError(t, err)
	assert.Equal(t, 48.8589, c.Lat)
	assert.Equal(t, 2.32, c.Lon)
}

func TestClient_Search_Label(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name": "London", "lat": 51.5, "lon": -0.12, "country": "GB", "state": "England"},
			{"name": "London", "lat": 42.98, "lon": -81.24, "country": "CA"}]`))
	}))
	defer server.Close()

	results, err := newClient(server.URL).Search(context.Background(), "London", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "London, England, GB", results[0].Address)
	assert.Equal(t, "London, CA", results[1].Address)
	assert.Equal(t, "London", results[1].Locality())
}

func TestClient_Resolve_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Resolve(context.Background(), "Xyzzyville")
	assert.ErrorIs(t, err, provider.ErrLocationNotFound)
}

func TestClient_Resolve_InvalidCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"name": "Broken", "lat": 123.0, "lon": 0}]`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Resolve(context.Background(), "Broken")
	assert.ErrorIs(t, err, provider.ErrValidation)
}
