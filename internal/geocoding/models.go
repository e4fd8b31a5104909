// Package geocoding converts addresses to coordinates and back.
package geocoding

import (
	"math"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Result is one geocoding match.
type Result struct {
	Address    string  `json:"address"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	Confidence float64 `json:"confidence"` // 0-1
	Category   string  `json:"category,omitempty"`
	PlaceType  string  `json:"place_type,omitempty"`
	Road       string  `json:"road,omitempty"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country,omitempty"`
	Postcode   string  `json:"postcode,omitempty"`
	OSMID      string  `json:"osm_id,omitempty"`
}

// NewResult validates r. Coordinates outside [-90,90] x [-180,180] and confidence
// outside [0,1] fail with a validation error.
func NewResult(r Result) (Result, error) {
	if err := r.Coordinate().Validate(); err != nil {
		return Result{}, provider.ValidationError("geocode result: %v", err)
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return Result{}, provider.ValidationError("confidence %f out of range [0, 1]", r.Confidence)
	}
	return r, nil
}

// Coordinate returns the result position.
func (r Result) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: r.Lat, Lon: r.Lon}
}

// Locality returns the most specific settlement name available.
func (r Result) Locality() string {
	switch {
	case r.City != "":
		return r.City
	case r.State != "":
		return r.State
	default:
		return r.Country
	}
}

// BatchResult is the outcome of geocoding one address of a batch.
type BatchResult struct {
	Address string  `json:"address"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
	Kind    string  `json:"kind,omitempty"`
}
