package nominatim

import (
	"math"
	"strconv"

	"github.com/geoagent/geoagent/internal/geocoding"
	"github.com/geoagent/geoagent/internal/provider"
)

// Nominatim API response structures.

type place struct {
	PlaceID     int64    `json:"place_id"`
	OSMType     string   `json:"osm_type"`
	OSMID       int64    `json:"osm_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Importance  *float64 `json:"importance"`
	Address     struct {
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Country     string `json:"country"`
		Postcode    string `json:"postcode"`
	} `json:"address"`

	// Error is set by /reverse when nothing is found.
	Error string `json:"error"`
}

func (p place) toResult() (geocoding.Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geocoding.Result{}, provider.ValidationError("nominatim: bad latitude %q", p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geocoding.Result{}, provider.ValidationError("nominatim: bad longitude %q", p.Lon)
	}

	confidence := defaultConfidence
	if p.Importance != nil {
		confidence = math.Min(1, math.Max(0, *p.Importance))
	}

	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}

	road := p.Address.Road
	if road != "" && p.Address.HouseNumber != "" {
		road = p.Address.HouseNumber + " " + road
	}

	var osmID string
	if p.OSMID != 0 {
		osmID = p.OSMType + "/" + strconv.FormatInt(p.OSMID, 10)
	}

	return geocoding.NewResult(geocoding.Result{
		Address:    p.DisplayName,
		Lat:        lat,
		Lon:        lon,
		Confidence: confidence,
		Category:   p.Category,
		PlaceType:  p.Type,
		Road:       road,
		City:       city,
		State:      p.Address.State,
		Country:    p.Address.Country,
		Postcode:   p.Address.Postcode,
		OSMID:      osmID,
	})
}
