package routing

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

const (
	// DefaultAlternatives is the number of routes RouteAlternatives returns when n <= 0.
	DefaultAlternatives = 3
	// MaxAlternatives is the most routes the upstream can compute for one request.
	MaxAlternatives = 3
	// MaxMatrixElements bounds origins x destinations for DistanceMatrix.
	MaxMatrixElements = 50
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Resolver turns place names into coordinates.
	Resolver geo.Resolver

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service computes routes between named places or coordinates.
type Service struct {
	provider Provider
	resolver geo.Resolver
	logger   zerolog.Logger
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}
}

// CalculateRoute returns the main route from origin to destination.
func (s *Service) CalculateRoute(ctx context.Context, origin, destination geo.Location, mode Mode) (*Route, error) {
	routes, err := s.routes(ctx, origin, destination, mode, 0)
	if err != nil {
		return nil, err
	}
	return &routes[0], nil
}

// RouteAlternatives returns up to n routes, the main route first.
func (s *Service) RouteAlternatives(ctx context.Context, origin, destination geo.Location, mode Mode, n int) ([]Route, error) {
	if n <= 0 {
		n = DefaultAlternatives
	}
	if n > MaxAlternatives {
		n = MaxAlternatives
	}

	routes, err := s.routes(ctx, origin, destination, mode, n-1)
	if err != nil {
		return nil, err
	}
	if len(routes) > n {
		routes = routes[:n]
	}
	return routes, nil
}

// DistanceMatrix computes one route per origin/destination pair, sequentially.
func (s *Service) DistanceMatrix(ctx context.Context, origins, destinations []geo.Location, mode Mode) (*DistanceMatrix, error) {
	if len(origins) == 0 || len(destinations) == 0 {
		return nil, provider.InputError("at least one origin and one destination are required")
	}
	if len(origins)*len(destinations) > MaxMatrixElements {
		return nil, provider.InputError("distance matrix limited to %d origin/destination pairs", MaxMatrixElements)
	}
	if _, err := mode.Profile(); err != nil {
		return nil, err
	}

	from, err := s.resolveAll(ctx, origins)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveAll(ctx, destinations)
	if err != nil {
		return nil, err
	}

	m := &DistanceMatrix{
		Origins:          from,
		Destinations:     to,
		Mode:             mode,
		DistancesMeters:  make([][]float64, len(from)),
		DurationsSeconds: make([][]float64, len(from)),
	}
	for i, o := range from {
		m.DistancesMeters[i] = make([]float64, len(to))
		m.DurationsSeconds[i] = make([]float64, len(to))
		for j, d := range to {
			routes, err := s.provider.GetDirections(ctx, DirectionsRequest{Origin: o, Destination: d, Mode: mode})
			if err != nil {
				return nil, err
			}
			if len(routes) == 0 {
				return nil, provider.NotFoundError(s.provider.Name(), "route")
			}
			m.DistancesMeters[i][j] = routes[0].DistanceMeters
			m.DurationsSeconds[i][j] = routes[0].DurationSeconds
		}
	}

	s.logger.Debug().
		Int("origins", len(from)).
		Int("destinations", len(to)).
		Str("mode", string(mode)).
		Msg("computed distance matrix")

	return m, nil
}

func (s *Service) routes(ctx context.Context, origin, destination geo.Location, mode Mode, alternatives int) ([]Route, error) {
	if _, err := mode.Profile(); err != nil {
		return nil, err
	}

	from, err := origin.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	to, err := destination.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}

	routes, err := s.provider.GetDirections(ctx, DirectionsRequest{
		Origin:          from,
		Destination:     to,
		Mode:            mode,
		MaxAlternatives: alternatives,
	})
	if err != nil {
		s.logger.Debug().Err(err).
			Str("origin", origin.String()).
			Str("destination", destination.String()).
			Msg("directions failed")
		return nil, err
	}
	if len(routes) == 0 {
		return nil, provider.NotFoundError(s.provider.Name(), "route")
	}
	return routes, nil
}

func (s *Service) resolveAll(ctx context.Context, locs []geo.Location) ([]geo.Coordinate, error) {
	out := make([]geo.Coordinate, 0, len(locs))
	for _, l := range locs {
		c, err := l.Resolve(ctx, s.resolver)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
