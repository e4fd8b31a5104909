// Package geo provides coordinates, the name-or-coordinates location variant and
// great-circle distance helpers shared by all wrappers.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/geoagent/geoagent/internal/provider"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// ErrInvalidCoordinates indicates a latitude or longitude outside its valid range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate checks that the coordinate is within [-90,90] x [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoordinates, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoordinates, c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Resolver turns a place name into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Coordinate, error)
}

// Location is either a place name or explicit coordinates, never both.
// The zero value is invalid.
type Location struct {
	name   string
	coord  Coordinate
	byName bool
	set    bool
}

// ByName returns a location identified by a place name, e.g. "London" or "Paris,FR".
func ByName(name string) Location {
	return Location{name: strings.TrimSpace(name), byName: true, set: true}
}

// ByCoordinates returns a location identified by explicit coordinates.
func ByCoordinates(lat, lon float64) Location {
	return Location{coord: Coordinate{Lat: lat, Lon: lon}, set: true}
}

// Name returns the place name and whether the location is name based.
func (l Location) Name() (string, bool) {
	return l.name, l.byName
}

// Coordinate returns the coordinates and whether the location is coordinate based.
func (l Location) Coordinate() (Coordinate, bool) {
	return l.coord, l.set && !l.byName
}

// Validate checks the variant. Failures are input errors.
func (l Location) Validate() error {
	switch {
	case !l.set:
		return provider.InputError("either a location name or coordinates must be provided")
	case l.byName && l.name == "":
		return provider.InputError("location name must not be empty")
	case !l.byName:
		if err := l.coord.Validate(); err != nil {
			return provider.InputError("%v", err)
		}
	}
	return nil
}

func (l Location) String() string {
	if l.byName {
		return l.name
	}
	return l.coord.String()
}

// Resolve validates l and returns its coordinates, asking r when l is name based.
func (l Location) Resolve(ctx context.Context, r Resolver) (Coordinate, error) {
	if err := l.Validate(); err != nil {
		return Coordinate{}, err
	}
	if !l.byName {
		return l.coord, nil
	}
	if r == nil {
		return Coordinate{}, provider.InputError("no resolver configured for location %q", l.name)
	}
	return r.Resolve(ctx, l.name)
}

// FromArgs builds a location from the loosely typed tool arguments
// (location | latitude+longitude). Supplying both or neither is an input error.
func FromArgs(name string, lat, lon *float64) (Location, error) {
	hasName := strings.TrimSpace(name) != ""
	hasCoords := lat != nil || lon != nil

	switch {
	case hasName && hasCoords:
		return Location{}, provider.InputError("provide either a location name or coordinates, not both")
	case hasName:
		return ByName(name), nil
	case lat != nil && lon != nil:
		loc := ByCoordinates(*lat, *lon)
		return loc, loc.Validate()
	case hasCoords:
		return Location{}, provider.InputError("latitude and longitude must be provided together")
	default:
		return Location{}, provider.InputError("either a location name or coordinates must be provided")
	}
}
