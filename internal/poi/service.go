package poi

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/geocoding"
	"github.com/geoagent/geoagent/internal/provider"
)

const (
	DefaultRadius         = 1000.0
	DefaultCategoryRadius = 5000.0
	MaxRadius             = 10000.0
	DefaultLimit          = 10
	MaxLimit              = 50

	// detailsRadius is how far from a geocoded place its map element may lie.
	detailsRadius = 150.0
)

// Provider finds mapped places around a point.
type Provider interface {
	// Nearby returns named places within radius meters of center. An empty
	// category matches any amenity, shop, tourism or leisure feature.
	Nearby(ctx context.Context, center geo.Coordinate, radius float64, category Category) ([]POI, error)
	Name() string
}

// TextSearcher runs free-text place searches.
type TextSearcher interface {
	Search(ctx context.Context, query string, limit int, countryCodes []string) ([]geocoding.Result, error)
	SearchViewbox(ctx context.Context, query string, center geo.Coordinate, radiusMeters float64, limit int) ([]geocoding.Result, error)
}

// ServiceConfig holds configuration for the POI service.
type ServiceConfig struct {
	Provider     Provider
	TextSearcher TextSearcher

	// Resolver turns place names into search centers.
	Resolver geo.Resolver

	// CountryCodes restricts unbounded text searches (optional).
	CountryCodes []string

	Logger zerolog.Logger
}

// Service answers place queries.
type Service struct {
	provider     Provider
	text         TextSearcher
	resolver     geo.Resolver
	countryCodes []string
	logger       zerolog.Logger
}

// NewService creates a new POI service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider:     cfg.Provider,
		text:         cfg.TextSearcher,
		resolver:     cfg.Resolver,
		countryCodes: cfg.CountryCodes,
		logger:       cfg.Logger,
	}
}

// SearchNearby returns places within radius meters of center, closest first.
// A zero radius means DefaultRadius and a zero limit DefaultLimit.
func (s *Service) SearchNearby(ctx context.Context, center geo.Location, radius float64, category Category, limit int) ([]POI, error) {
	if radius == 0 {
		radius = DefaultRadius
	}
	if err := validateRadius(radius); err != nil {
		return nil, err
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	c, err := center.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	places, err := s.nearby(ctx, c, radius, category)
	if err != nil {
		return nil, err
	}
	if len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}

// SearchText runs a free-text search. With near set, results are restricted to
// radius meters around it (default 5000) and sorted by distance; otherwise the
// upstream relevance order is kept.
func (s *Service) SearchText(ctx context.Context, query string, near *geo.Coordinate, radius float64, limit int) ([]POI, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, provider.InputError("search query must not be empty")
	}
	limit, err := normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	if near == nil {
		results, err := s.text.Search(ctx, query, limit, s.countryCodes)
		if err != nil {
			return nil, err
		}
		return fromResults(results)
	}

	if err := near.Validate(); err != nil {
		return nil, provider.InputError("%v", err)
	}
	if radius == 0 {
		radius = DefaultCategoryRadius
	}
	if err := validateRadius(radius); err != nil {
		return nil, err
	}

	results, err := s.text.SearchViewbox(ctx, query, *near, radius, limit)
	if err != nil {
		return nil, err
	}
	places, err := fromResults(results)
	if err != nil {
		return nil, err
	}

	within := places[:0]
	for _, p := range places {
		p = p.WithDistanceFrom(*near)
		if *p.DistanceMeters <= radius {
			within = append(within, p)
		}
	}
	sortByDistance(within)
	return within, nil
}

// PlaceDetails looks up a place by name and enriches it with the mapped contact
// details and opening hours when available.
func (s *Service) PlaceDetails(ctx context.Context, name string) (*POI, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, provider.InputError("place name must not be empty")
	}

	results, err := s.text.Search(ctx, name, 1, s.countryCodes)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, provider.NotFoundError("poi", "place "+name)
	}
	places, err := fromResults(results[:1])
	if err != nil {
		return nil, err
	}
	place := places[0]

	nearby, err := s.provider.Nearby(ctx, place.Coordinate(), detailsRadius, "")
	if err != nil {
		s.logger.Debug().Err(err).Str("place", name).Msg("place enrichment failed")
		return &place, nil
	}
	if match, ok := bestMatch(nearby, place); ok {
		place = merge(place, match)
	}
	return &place, nil
}

// SearchByCategory returns places of f.Category around f.Center that pass the
// rating and price filters, closest first.
func (s *Service) SearchByCategory(ctx context.Context, f Filter) ([]POI, error) {
	if f.Category == "" {
		return nil, provider.InputError("category must not be empty")
	}
	if f.RadiusMeters == 0 {
		f.RadiusMeters = DefaultCategoryRadius
	}
	if err := validateRadius(f.RadiusMeters); err != nil {
		return nil, err
	}
	if f.MinRating != nil && (math.IsNaN(*f.MinRating) || *f.MinRating < MinRating || *f.MinRating > MaxRating) {
		return nil, provider.InputError("min rating must be between 0 and 5")
	}
	if f.MaxPriceLevel != nil && (*f.MaxPriceLevel < MinPriceLevel || *f.MaxPriceLevel > MaxPriceLevel) {
		return nil, provider.InputError("max price level must be between 1 and 4")
	}
	limit, err := normalizeLimit(f.Limit)
	if err != nil {
		return nil, err
	}

	c, err := f.Center.Resolve(ctx, s.resolver)
	if err != nil {
		return nil, err
	}
	places, err := s.nearby(ctx, c, f.RadiusMeters, f.Category)
	if err != nil {
		return nil, err
	}

	filtered := make([]POI, 0, len(places))
	for _, p := range places {
		if f.MinRating != nil && (p.Rating == nil || *p.Rating < *f.MinRating) {
			continue
		}
		if f.MaxPriceLevel != nil && p.PriceLevel != nil && *p.PriceLevel > *f.MaxPriceLevel {
			continue
		}
		filtered = append(filtered, p)
		if len(filtered) == limit {
			break
		}
	}
	return filtered, nil
}

func (s *Service) nearby(ctx context.Context, c geo.Coordinate, radius float64, category Category) ([]POI, error) {
	places, err := s.provider.Nearby(ctx, c, radius, category)
	if err != nil {
		s.logger.Debug().Err(err).
			Str("center", c.String()).
			Str("category", string(category)).
			Msg("nearby search failed")
		return nil, err
	}

	within := make([]POI, 0, len(places))
	for _, p := range places {
		p = p.WithDistanceFrom(c)
		if *p.DistanceMeters <= radius {
			within = append(within, p)
		}
	}
	sortByDistance(within)
	return within, nil
}

func validateRadius(radius float64) error {
	if math.IsNaN(radius) || radius <= 0 || radius > MaxRadius {
		return provider.InputError("radius must be between 1 and %.0f meters", MaxRadius)
	}
	return nil
}

func normalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, provider.InputError("limit must not be negative")
	case limit == 0:
		return DefaultLimit, nil
	case limit > MaxLimit:
		return MaxLimit, nil
	default:
		return limit, nil
	}
}

func sortByDistance(places []POI) {
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].distance() < places[j].distance()
	})
}

func fromResults(results []geocoding.Result) ([]POI, error) {
	places := make([]POI, 0, len(results))
	for _, r := range results {
		name := r.Address
		if i := strings.IndexByte(name, ','); i > 0 {
			name = name[:i]
		}
		category := Category(r.PlaceType)
		if r.Category != "" && r.PlaceType != "" {
			category = Category(r.Category + ":" + r.PlaceType)
		}

		p, err := NewPOI(POI{
			ID:       r.OSMID,
			Name:     name,
			Category: category,
			Lat:      r.Lat,
			Lon:      r.Lon,
			Address:  r.Address,
		})
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, nil
}

// bestMatch picks the mapped element named like p, closest first.
func bestMatch(candidates []POI, p POI) (POI, bool) {
	var best POI
	found := false
	bestDist := 0.0
	for _, c := range candidates {
		if !strings.EqualFold(strings.TrimSpace(c.Name), p.Name) {
			continue
		}
		d := geo.Haversine(p.Coordinate(), c.Coordinate())
		if !found || d < bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

func merge(base, extra POI) POI {
	if extra.Category != "" {
		base.Category = extra.Category
	}
	if base.ID == "" {
		base.ID = extra.ID
	}
	base.Rating = extra.Rating
	base.PriceLevel = extra.PriceLevel
	base.Phone = extra.Phone
	base.Website = extra.Website
	base.OpeningHours = extra.OpeningHours
	base.Description = extra.Description
	return base
}
