package routing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/routing"
)

// mockProvider answers with a straight-line route per request.
type mockProvider struct {
	requests []routing.DirectionsRequest
	err      error
	empty    bool
}

func (m *mockProvider) GetDirections(_ context.Context, req routing.DirectionsRequest) ([]routing.Route, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return nil, nil
	}

	distance := geo.Haversine(req.Origin, req.Destination)
	routes := make([]routing.Route, 0, req.MaxAlternatives+1)
	for i := 0; i <= req.MaxAlternatives+2; i++ {
		d := distance * (1 + float64(i)*0.1)
		routes = append(routes, routing.Route{
			Origin:          req.Origin,
			Destination:     req.Destination,
			DistanceMeters:  d,
			DurationSeconds: d / 50000 * 3600,
			Mode:            req.Mode,
			Steps: []routing.Step{
				{Instruction: "Head north", DistanceMeters: d, DurationSeconds: d / 50000 * 3600, Start: req.Origin, End: req.Destination, Maneuver: "depart"},
			},
		})
	}
	return routes, nil
}

func (m *mockProvider) Name() string {
	return "mock"
}

type mapResolver map[string]geo.Coordinate

func (r mapResolver) Resolve(_ context.Context, name string) (geo.Coordinate, error) {
	if c, ok := r[name]; ok {
		return c, nil
	}
	return geo.Coordinate{}, provider.NotFoundError("mock-geo", name)
}

var resolver = mapResolver{
	"Empire State Building": {Lat: 40.7484, Lon: -73.9857},
	"Central Park":          {Lat: 40.7829, Lon: -73.9654},
	"Times Square":          {Lat: 40.7580, Lon: -73.9855},
}

func newTestService(p routing.Provider) *routing.Service {
	return routing.NewService(routing.ServiceConfig{
		Provider: p,
		Resolver: resolver,
		Logger:   zerolog.Nop(),
	})
}

func TestService_CalculateRoute(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(p)

	route, err := svc.CalculateRoute(context.Background(),
		geo.ByCoordinates(40.7484, -73.9857),
		geo.ByCoordinates(40.7829, -73.9654),
		routing.ModeDriving,
	)
	require.NoError(t, err)

	assert.Greater(t, route.DistanceMeters, 0.0)
	assert.Greater(t, route.DurationSeconds, 0.0)
	assert.NotEmpty(t, route.Steps)
	assert.Equal(t, routing.ModeDriving, route.Mode)

	require.Len(t, p.requests, 1)
	assert.Equal(t, 0, p.requests[0].MaxAlternatives)
}

func TestService_CalculateRoute_ResolvesNames(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(p)

	route, err := svc.CalculateRoute(context.Background(),
		geo.ByName("Empire State Building"),
		geo.ByName("Central Park"),
		routing.ModeWalking,
	)
	require.NoError(t, err)
	assert.Equal(t, resolver["Empire State Building"], route.Origin)
	assert.Equal(t, resolver["Central Park"], route.Destination)
	assert.Equal(t, routing.ModeWalking, p.requests[0].Mode)
}

func TestService_CalculateRoute_Errors(t *testing.T) {
	tests := []struct {
		name        string
		origin      geo.Location
		destination geo.Location
		mode        routing.Mode
		provider    *mockProvider
		expected    error
	}{
		{
			name:        "transit unsupported",
			origin:      geo.ByCoordinates(40.7484, -73.9857),
			destination: geo.ByCoordinates(40.7829, -73.9654),
			mode:        routing.ModeTransit,
			provider:    &mockProvider{},
			expected:    provider.ErrInput,
		},
		{
			name:        "unknown place",
			origin:      geo.ByName("Atlantis"),
			destination: geo.ByCoordinates(40.7829, -73.9654),
			mode:        routing.ModeDriving,
			provider:    &mockProvider{},
			expected:    provider.ErrLocationNotFound,
		},
		{
			name:        "zero location",
			origin:      geo.Location{},
			destination: geo.ByCoordinates(40.7829, -73.9654),
			mode:        routing.ModeDriving,
			provider:    &mockProvider{},
			expected:    provider.ErrInput,
		},
		{
			name:        "no routes",
			origin:      geo.ByCoordinates(40.7484, -73.9857),
			destination: geo.ByCoordinates(40.7829, -73.9654),
			mode:        routing.ModeDriving,
			provider:    &mockProvider{empty: true},
			expected:    provider.ErrLocationNotFound,
		},
		{
			name:        "provider failure",
			origin:      geo.ByCoordinates(40.7484, -73.9857),
			destination: geo.ByCoordinates(40.7829, -73.9654),
			mode:        routing.ModeDriving,
			provider:    &mockProvider{err: provider.TransientError("mock", errors.New("connection refused"))},
			expected:    provider.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.provider)
			_, err := svc.CalculateRoute(context.Background(), tt.origin, tt.destination, tt.mode)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestService_RouteAlternatives(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		expectedAlts  int
		expectedCount int
	}{
		{"default", 0, 2, 3},
		{"two", 2, 1, 2},
		{"capped", 10, 2, 3},
		{"main only", 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockProvider{}
			svc := newTestService(p)

			routes, err := svc.RouteAlternatives(context.Background(),
				geo.ByName("Empire State Building"),
				geo.ByName("Times Square"),
				routing.ModeCycling,
				tt.n,
			)
			require.NoError(t, err)
			assert.Len(t, routes, tt.expectedCount)
			assert.Equal(t, tt.expectedAlts, p.requests[0].MaxAlternatives)
		})
	}
}

func TestService_DistanceMatrix(t *testing.T) {
	p := &mockProvider{}
	svc := newTestService(p)

	origins := []geo.Location{geo.ByName("Empire State Building"), geo.ByCoordinates(40.7589, -73.9851)}
	destinations := []geo.Location{geo.ByName("Central Park")}

	m, err := svc.DistanceMatrix(context.Background(), origins, destinations, routing.ModeDriving)
	require.NoError(t, err)

	require.Len(t, m.DistancesMeters, 2)
	require.Len(t, m.DurationsSeconds, 2)
	for i := range m.DistancesMeters {
		require.Len(t, m.DistancesMeters[i], 1)
		assert.Greater(t, m.DistancesMeters[i][0], 0.0)
		assert.Greater(t, m.DurationsSeconds[i][0], 0.0)
	}
	assert.Len(t, p.requests, 2)
	assert.Equal(t, resolver["Empire State Building"], p.requests[0].Origin)
	assert.Equal(t, resolver["Central Park"], p.requests[1].Destination)
}

func TestService_DistanceMatrix_InvalidInput(t *testing.T) {
	svc := newTestService(&mockProvider{})
	one := []geo.Location{geo.ByCoordinates(40.7484, -73.9857)}

	many := make([]geo.Location, 8)
	for i := range many {
		many[i] = geo.ByCoordinates(40.7+float64(i)*0.01, -73.98)
	}

	tests := []struct {
		name         string
		origins      []geo.Location
		destinations []geo.Location
		mode         routing.Mode
	}{
		{"no origins", nil, one, routing.ModeDriving},
		{"no destinations", one, nil, routing.ModeDriving},
		{"too many pairs", many, many, routing.ModeDriving},
		{"transit", one, one, routing.ModeTransit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.DistanceMatrix(context.Background(), tt.origins, tt.destinations, tt.mode)
			assert.ErrorIs(t, err, provider.ErrInput)
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected routing.Mode
		wantErr  bool
	}{
		{"", routing.ModeDriving, false},
		{"driving", routing.ModeDriving, false},
		{" Walking ", routing.ModeWalking, false},
		{"cycling", routing.ModeCycling, false},
		{"transit", routing.ModeTransit, false},
		{"flying", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := routing.ParseMode(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, provider.ErrInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestMode_Profile(t *testing.T) {
	p, err := routing.ModeDriving.Profile()
	require.NoError(t, err)
	assert.Equal(t, routing.ProfileCar, p)

	p, err = routing.ModeWalking.Profile()
	require.NoError(t, err)
	assert.Equal(t, routing.ProfileWalk, p)

	p, err = routing.ModeCycling.Profile()
	require.NoError(t, err)
	assert.Equal(t, routing.ProfileBike, p)

	_, err = routing.ModeTransit.Profile()
	assert.ErrorIs(t, err, provider.ErrInput)
}

func TestRoute_Validate(t *testing.T) {
	r := routing.Route{DistanceMeters: 100, DurationSeconds: 60, Mode: routing.ModeWalking}
	assert.NoError(t, r.Validate())

	r.DistanceMeters = -1
	assert.ErrorIs(t, r.Validate(), provider.ErrValidation)

	r = routing.Route{Mode: "hover"}
	assert.ErrorIs(t, r.Validate(), provider.ErrValidation)

	r = routing.Route{Mode: routing.ModeDriving, Steps: []routing.Step{{DurationSeconds: -5}}}
	assert.ErrorIs(t, r.Validate(), provider.ErrValidation)
}

func TestRoute_Rounding(t *testing.T) {
	r := routing.Route{DistanceMeters: 4567, DurationSeconds: 914}
	assert.Equal(t, 4.57, r.DistanceKm())
	assert.Equal(t, 15.2, r.DurationMinutes())
}
