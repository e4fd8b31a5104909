package geocoding

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Result count limits for forward geocoding.
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Provider is a forward and reverse geocoder.
type Provider interface {
	// Search returns matches for a free-form query, best first.
	Search(ctx context.Context, query string, limit int, countryCodes []string) ([]Result, error)

	// Reverse returns the address at c.
	Reverse(ctx context.Context, c geo.Coordinate) (*Result, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	Provider Provider

	// CountryCodes restricts forward geocoding (ISO 3166-1 alpha-2, optional).
	CountryCodes []string

	Logger zerolog.Logger
}

// Service converts between addresses and coordinates.
type Service struct {
	provider     Provider
	countryCodes []string
	logger       zerolog.Logger
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider:     cfg.Provider,
		countryCodes: cfg.CountryCodes,
		logger:       cfg.Logger,
	}
}

// ForwardGeocode returns up to limit matches for address. limit 0 selects DefaultLimit.
func (s *Service) ForwardGeocode(ctx context.Context, address string, limit int) ([]Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, provider.InputError("address must not be empty")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return nil, provider.InputError("limit must be between 1 and %d, got %d", MaxLimit, limit)
	}

	results, err := s.provider.Search(ctx, address, limit, s.countryCodes)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, provider.NotFoundError(s.provider.Name(), "location \""+address+"\"")
	}

	s.logger.Debug().Str("address", address).Int("results", len(results)).Msg("forward geocode")
	return results, nil
}

// ReverseGeocode returns the address at lat, lon.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lon float64) (*Result, error) {
	c := geo.Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return nil, provider.InputError("%v", err)
	}
	return s.provider.Reverse(ctx, c)
}

// BatchGeocode geocodes each address in order, one request at a time. A failure
// is recorded on its entry and does not stop the batch.
func (s *Service) BatchGeocode(ctx context.Context, addresses []string) ([]BatchResult, error) {
	if len(addresses) == 0 {
		return nil, provider.InputError("addresses must not be empty")
	}

	out := make([]BatchResult, 0, len(addresses))
	for _, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := BatchResult{Address: addr}
		results, err := s.ForwardGeocode(ctx, addr, 1)
		if err != nil {
			s.logger.Debug().Err(err).Str("address", addr).Msg("batch geocode entry failed")
			entry.Error = err.Error()
			entry.Kind = provider.Kind(err)
		} else {
			entry.Result = &results[0]
		}
		out = append(out, entry)
	}
	return out, nil
}

// Resolve returns the coordinates of the best match for name.
func (s *Service) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	results, err := s.ForwardGeocode(ctx, name, 1)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return results[0].Coordinate(), nil
}
