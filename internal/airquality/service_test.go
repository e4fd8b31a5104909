package airquality_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/airquality"
	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

type mockProvider struct {
	points  int
	calls   int
	history [2]time.Time
}

func (m *mockProvider) Current(_ context.Context, _ geo.Coordinate) (*airquality.Reading, error) {
	m.calls++
	return &airquality.Reading{AQI: 2, PM25: 8}, nil
}

func (m *mockProvider) Forecast(_ context.Context, _ geo.Coordinate) ([]airquality.ForecastPoint, error) {
	m.calls++
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]airquality.ForecastPoint, m.points)
	for i := range out {
		out[i] = airquality.ForecastPoint{Time: base.Add(time.Duration(i) * time.Hour), AQI: 1 + i%5}
	}
	return out, nil
}

func (m *mockProvider) History(_ context.Context, _ geo.Coordinate, start, end time.Time) ([]airquality.Reading, error) {
	m.calls++
	m.history = [2]time.Time{start, end}
	return []airquality.Reading{{AQI: 1}, {AQI: 2}}, nil
}

type mapResolver map[string]geo.Coordinate

func (r mapResolver) Resolve(_ context.Context, name string) (geo.Coordinate, error) {
	if c, ok := r[name]; ok {
		return c, nil
	}
	return geo.Coordinate{}, provider.NotFoundError("resolver", name)
}

func newService(p airquality.Provider) *airquality.Service {
	return airquality.NewService(airquality.ServiceConfig{
		Provider: p,
		Resolver: mapResolver{"Beijing": {Lat: 39.9, Lon: 116.4}},
		Logger:   zerolog.Nop(),
	})
}

func TestService_GetCurrent(t *testing.T) {
	r, err := newService(&mockProvider{}).GetCurrent(context.Background(), geo.ByName("Beijing"))
	require.NoError(t, err)
	assert.Equal(t, "Fair", r.Description())
}

func TestService_GetCurrent_UnknownLocation(t *testing.T) {
	m := &mockProvider{}
	_, err := newService(m).GetCurrent(context.Background(), geo.ByName("Nowhere"))
	assert.ErrorIs(t, err, provider.ErrLocationNotFound)
	assert.Equal(t, 0, m.calls)
}

func TestService_GetForecast_Hours(t *testing.T) {
	tests := []struct {
		name     string
		hours    int
		expected int
	}{
		{"default", 0, 24},
		{"truncated", 5, 5},
		{"longer than available", 120, 96},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := newService(&mockProvider{points: 96}).
				GetForecast(context.Background(), geo.ByCoordinates(39.9, 116.4), tt.hours)
			require.NoError(t, err)
			require.Len(t, points, tt.expected)
			for i := 1; i < len(points); i++ {
				assert.True(t, points[i-1].Time.Before(points[i].Time))
			}
		})
	}
}

func TestService_GetForecast_InvalidHours(t *testing.T) {
	m := &mockProvider{points: 10}
	for _, hours := range []int{-1, 121} {
		_, err := newService(m).GetForecast(context.Background(), geo.ByName("Beijing"), hours)
		assert.ErrorIs(t, err, provider.ErrInput)
	}
	assert.Equal(t, 0, m.calls)
}

func TestService_GetHistory(t *testing.T) {
	m := &mockProvider{}
	end := time.Now()
	start := end.Add(-24 * time.Hour)

	readings, err := newService(m).GetHistory(context.Background(), geo.ByName("Beijing"), start, end)
	require.NoError(t, err)
	assert.Len(t, readings, 2)
	assert.Equal(t, start, m.history[0])

	_, err = newService(m).GetHistory(context.Background(), geo.ByName("Beijing"), end, start)
	assert.ErrorIs(t, err, provider.ErrInput)
	_, err = newService(m).GetHistory(context.Background(), geo.ByName("Beijing"), end, end)
	assert.ErrorIs(t, err, provider.ErrInput)
}
