// Package polyline implements the encoded polyline algorithm format used by
// OpenRouteService geometries (precision 5).
package polyline

import (
	"errors"
	"math"

	"github.com/geoagent/geoagent/internal/geo"
)

// ErrMalformed is returned when an encoded string ends in the middle of a value
// or contains bytes outside the polyline alphabet.
var ErrMalformed = errors.New("malformed polyline")

const factor = 1e5

// Decode decodes an encoded polyline into coordinates.
func Decode(encoded string) ([]geo.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	coords := make([]geo.Coordinate, 0, len(encoded)/4)
	var lat, lon, index int

	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		dLon, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next
		lat += dLat
		lon += dLon

		coords = append(coords, geo.Coordinate{Lat: float64(lat) / factor, Lon: float64(lon) / factor})
	}

	return coords, nil
}

func decodeValue(encoded string, index int) (value, next int, err error) {
	var result, shift int
	for {
		if index >= len(encoded) {
			return 0, index, ErrMalformed
		}
		b := int(encoded[index]) - 63
		index++
		if b < 0 || b > 0x3f {
			return 0, index, ErrMalformed
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode encodes coordinates as a polyline string.
func Encode(coords []geo.Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(coords)*6)
	var prevLat, prevLon int
	for _, c := range coords {
		lat := int(math.Round(c.Lat * factor))
		lon := int(math.Round(c.Lon * factor))
		buf = encodeValue(buf, lat-prevLat)
		buf = encodeValue(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(buf)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}
	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// Length returns the summed great-circle length of the path in meters.
func Length(coords []geo.Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += geo.Haversine(coords[i-1], coords[i])
	}
	return total
}
