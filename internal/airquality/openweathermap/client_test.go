package openweathermap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/airquality/openweathermap"
	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

var beijing = geo.Coordinate{Lat: 39.9042, Lon: 116.4074}

const pollutionBody = `{"list": [
	{"dt": 1700000000, "main": {"aqi": 4},
	 "components": {"co": 600.8, "no": 1.2, "no2": 45.1, "o3": 30.0, "so2": 12.3, "pm2_5": 75.5, "pm10": 98.2, "nh3": 4.4}},
	{"dt": 1700003600, "main": {"aqi": 3},
	 "components": {"co": 500.0, "no": 1.0, "no2": 40.0, "o3": 35.0, "so2": 10.0, "pm2_5": 55.0, "pm10": 70.0, "nh3": 4.0}}
]}`

func newClient(url string) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{APIKey: "k", BaseURL: url, Logger: zerolog.Nop()})
}

func TestClient_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution", r.URL.Path)
		assert.Equal(t, "39.904200", r.URL.Query().Get("lat"))
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(pollutionBody))
	}))
	defer server.Close()

	r, err := newClient(server.URL).Current(context.Background(), beijing)
	require.NoError(t, err)

	assert.Equal(t, 4, r.AQI)
	assert.Equal(t, "Poor", r.Description())
	assert.Equal(t, 75.5, r.PM25)
	assert.Equal(t, 98.2, r.PM10)
	assert.Equal(t, 4.4, r.NH3)
	assert.Equal(t, int64(1700000000), r.MeasuredAt.Unix())
}

func TestClient_Current_InvalidAQI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": [{"dt": 1, "main": {"aqi": 6}, "components": {}}]}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Current(context.Background(), beijing)
	assert.ErrorIs(t, err, provider.ErrValidation)
}

func TestClient_Current_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": []}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Current(context.Background(), beijing)
	assert.ErrorIs(t, err, provider.ErrValidation)
}

func TestClient_Forecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution/forecast", r.URL.Path)
		_, _ = w.Write([]byte(pollutionBody))
	}))
	defer server.Close()

	points, err := newClient(server.URL).Forecast(context.Background(), beijing)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 4, points[0].AQI)
	assert.Equal(t, 35.0, points[1].O3)
}

func TestClient_History(t *testing.T) {
	start := time.Unix(1700000000, 0)
	end := time.Unix(1700086400, 0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution/history", r.URL.Path)
		assert.Equal(t, "1700000000", r.URL.Query().Get("start"))
		assert.Equal(t, "1700086400", r.URL.Query().Get("end"))
		_, _ = w.Write([]byte(pollutionBody))
	}))
	defer server.Close()

	readings, err := newClient(server.URL).History(context.Background(), beijing, start, end)
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))
	defer server.Close()

	client := newClient(server.URL)
	defer client.Close()

	_, err := client.Current(context.Background(), beijing)
	assert.ErrorIs(t, err, provider.ErrAPI)
	assert.Equal(t, http.StatusUnauthorized, provider.StatusCode(err))
}
