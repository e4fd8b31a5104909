// Package routing computes routes, alternatives and distance matrices between locations.
package routing

import (
	"context"
	"math"
	"strings"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetDirections retrieves route directions between two points.
	// Returns multiple route alternatives when requested and available.
	GetDirections(ctx context.Context, req DirectionsRequest) ([]Route, error)
	// Name returns the provider identifier for logging.
	Name() string
}

// Mode is a means of transport.
type Mode string

const (
	ModeDriving Mode = "driving"
	ModeWalking Mode = "walking"
	ModeCycling Mode = "cycling"
	ModeTransit Mode = "transit"
)

// Modes lists every accepted mode.
var Modes = []Mode{ModeDriving, ModeWalking, ModeCycling, ModeTransit}

// ParseMode returns the mode named s. An empty string means driving.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeDriving, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", provider.InputError("unknown travel mode %q (driving, walking, cycling or transit)", s)
}

// RouteProfile is a provider routing profile.
type RouteProfile string

const (
	// ProfileCar is the driving-car profile.
	ProfileCar RouteProfile = "driving-car"
	// ProfileWalk is the foot-walking profile for pedestrian routing.
	ProfileWalk RouteProfile = "foot-walking"
	// ProfileBike is the cycling-regular profile for bike routing.
	ProfileBike RouteProfile = "cycling-regular"
)

// Profile maps a mode to its routing profile. Transit has none.
func (m Mode) Profile() (RouteProfile, error) {
	switch m {
	case ModeDriving:
		return ProfileCar, nil
	case ModeWalking:
		return ProfileWalk, nil
	case ModeCycling:
		return ProfileBike, nil
	case ModeTransit:
		return "", provider.InputError("transit routing is not supported, use driving, walking or cycling")
	default:
		return "", provider.InputError("unknown travel mode %q", string(m))
	}
}

// DirectionsRequest is the request for computing routes.
type DirectionsRequest struct {
	Origin          geo.Coordinate
	Destination     geo.Coordinate
	Mode            Mode
	MaxAlternatives int // Alternatives beyond the main route, 0 for the main route only
}

// Route is one way of getting from Origin to Destination.
type Route struct {
	Origin          geo.Coordinate `json:"origin"`
	Destination     geo.Coordinate `json:"destination"`
	DistanceMeters  float64        `json:"distance_meters"`
	DurationSeconds float64        `json:"duration_seconds"`
	Mode            Mode           `json:"mode"`
	Summary         string         `json:"summary,omitempty"`
	Steps           []Step         `json:"steps"`
	Polyline        string         `json:"polyline,omitempty"` // Encoded polyline (precision 5)
	BoundingBox     *BoundingBox   `json:"bounding_box,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
}

// Validate checks the route invariants.
func (r *Route) Validate() error {
	if r.DistanceMeters < 0 || r.DurationSeconds < 0 {
		return provider.ValidationError("route distance and duration must not be negative")
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return provider.ValidationError("route has unknown mode %q", string(r.Mode))
	}
	for i := range r.Steps {
		if r.Steps[i].DistanceMeters < 0 || r.Steps[i].DurationSeconds < 0 {
			return provider.ValidationError("step %d has negative distance or duration", i)
		}
	}
	return nil
}

// DistanceKm returns the distance rounded to two decimals.
func (r *Route) DistanceKm() float64 {
	return math.Round(r.DistanceMeters/10) / 100
}

// DurationMinutes returns the duration rounded to one decimal.
func (r *Route) DurationMinutes() float64 {
	return math.Round(r.DurationSeconds/6) / 10
}

// Step is one instruction of a route.
type Step struct {
	Instruction     string         `json:"instruction"`
	DistanceMeters  float64        `json:"distance_meters"`
	DurationSeconds float64        `json:"duration_seconds"`
	Start           geo.Coordinate `json:"start_location"`
	End             geo.Coordinate `json:"end_location"`
	Maneuver        string         `json:"maneuver,omitempty"`
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// DistanceMatrix holds pairwise distances and durations; row i is origin i.
type DistanceMatrix struct {
	Origins          []geo.Coordinate `json:"origins"`
	Destinations     []geo.Coordinate `json:"destinations"`
	Mode             Mode             `json:"mode"`
	DistancesMeters  [][]float64      `json:"distances_meters"`
	DurationsSeconds [][]float64      `json:"durations_seconds"`
}
