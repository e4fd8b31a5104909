package weather

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
)

// Provider fetches weather for explicit coordinates.
type Provider interface {
	// CurrentByCoordinates fetches the current observation.
	CurrentByCoordinates(ctx context.Context, c geo.Coordinate) (*CurrentWeather, error)

	// ForecastByCoordinates fetches the 5 day / 3 hour forecast.
	ForecastByCoordinates(ctx context.Context, c geo.Coordinate) (*Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Resolver turns place names into coordinates.
	Resolver geo.Resolver

	Logger zerolog.Logger
}

// Service answers weather questions for named places or coordinates.
type Service struct {
	provider Provider
	resolver geo.Resolver
	logger   zerolog.Logger
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
}

// GetCurrentWeather returns current conditions at loc.
func (s *Service) GetCurrentWeather(ctx context.Context, loc geo.Location) (*CurrentWeather, error) {
	c, err := loc.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	w, err := s.provider.CurrentByCoordinates(ctx, c)
	if err != nil {
		s.logger.Debug().Err(err).Str("location", loc.String()).Msg("current weather failed")
		return nil, err
	}
	if name, ok := loc.Name(); ok && w.Location == "" {
		w.Location = name
	}
	return w, nil
}

// GetForecast returns the 3-hour forecast entries at loc in upstream order.
func (s *Service) GetForecast(ctx context.Context, loc geo.Location) (*Forecast, error) {
	c, err := loc.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	f, err := s.provider.ForecastByCoordinates(ctx, c)
	if err != nil {
		s.logger.Debug().Err(err).Str("location", loc.String()).Msg("forecast failed")
		return nil, err
	}
	if name, ok := loc.Name(); ok && f.Location == "" {
		f.Location = name
	}
	return f, nil
}

// GetDailySummary aggregates the forecast at loc into per-day summaries.
func (s *Service) GetDailySummary(ctx context.Context, loc geo.Location) ([]DailySummary, error) {
	f, err := s.GetForecast(ctx, loc)
	if err != nil {
		return nil, err
	}
	return Summarize(f.Entries, f.Timezone), nil
}
