package airquality

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Forecast horizon limits in hours.
const (
	DefaultForecastHours = 24
	MaxForecastHours     = 120
)

// Provider defines the interface for air quality data providers.
type Provider interface {
	// Current fetches the latest reading at c.
	Current(ctx context.Context, c geo.Coordinate) (*Reading, error)

	// Forecast fetches hourly forecast points at c in upstream order.
	Forecast(ctx context.Context, c geo.Coordinate) ([]ForecastPoint, error)

	// History fetches readings at c between start and end.
	History(ctx context.Context, c geo.Coordinate, start, end time.Time) ([]Reading, error)
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Resolver turns place names into coordinates.
	Resolver geo.Resolver

	Logger zerolog.Logger
}

// Service answers air quality questions for named places or coordinates.
type Service struct {
	provider Provider
	resolver geo.Resolver
	logger   zerolog.Logger
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
}

// GetCurrent returns the latest reading at loc.
func (s *Service) GetCurrent(ctx context.Context, loc geo.Location) (*Reading, error) {
	c, err := loc.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	return s.provider.Current(ctx, c)
}

// GetForecast returns at most hours forecast points at loc. hours of 0 selects
// DefaultForecastHours.
func (s *Service) GetForecast(ctx context.Context, loc geo.Location, hours int) ([]ForecastPoint, error) {
	if hours == 0 {
		hours = DefaultForecastHours
	}
	if hours < 1 || hours > MaxForecastHours {
		return nil, provider.InputError("hours must be between 1 and %d, got %d", MaxForecastHours, hours)
	}

	c, err := loc.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	points, err := s.provider.Forecast(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(points) > hours {
		points = points[:hours]
	}

	s.logger.Debug().Str("location", loc.String()).Int("points", len(points)).Msg("air quality forecast")
	return points, nil
}

// GetHistory returns readings at loc in [start, end].
func (s *Service) GetHistory(ctx context.Context, loc geo.Location, start, end time.Time) ([]Reading, error) {
	if !start.Before(end) {
		return nil, provider.InputError("start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	c, err := loc.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	return s.provider.History(ctx, c, start, end)
}
