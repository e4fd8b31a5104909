// Package poi finds points of interest around a location or by free text.
package poi

import (
	"math"
	"strings"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Category is a generic place category.
type Category string

const (
	CategoryRestaurant     Category = "restaurant"
	CategoryCafe           Category = "cafe"
	CategoryBar            Category = "bar"
	CategoryHotel          Category = "hotel"
	CategoryMuseum         Category = "museum"
	CategoryPark           Category = "park"
	CategoryShopping       Category = "shopping"
	CategorySupermarket    Category = "supermarket"
	CategoryHospital       Category = "hospital"
	CategoryPharmacy       Category = "pharmacy"
	CategoryGasStation     Category = "gas_station"
	CategoryATM            Category = "atm"
	CategoryBank           Category = "bank"
	CategoryParking        Category = "parking"
	CategoryTransitStation Category = "transit_station"
	CategoryEntertainment  Category = "entertainment"
	CategoryEducation      Category = "education"
	CategoryLandmark       Category = "landmark"
)

// Categories lists the known categories in display order.
var Categories = []Category{
	CategoryRestaurant, CategoryCafe, CategoryBar, CategoryHotel, CategoryMuseum,
	CategoryPark, CategoryShopping, CategorySupermarket, CategoryHospital,
	CategoryPharmacy, CategoryGasStation, CategoryATM, CategoryBank, CategoryParking,
	CategoryTransitStation, CategoryEntertainment, CategoryEducation, CategoryLandmark,
}

// NormalizeCategory lowercases s and replaces spaces with underscores.
func NormalizeCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	return Category(strings.ReplaceAll(s, " ", "_"))
}

// Known reports whether c is one of Categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

const (
	MinRating     = 0.0
	MaxRating     = 5.0
	MinPriceLevel = 1
	MaxPriceLevel = 4
)

// POI is a point of interest.
type POI struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	Lat            float64  `json:"latitude"`
	Lon            float64  `json:"longitude"`
	Address        string   `json:"address,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`      // 0-5
	PriceLevel     *int     `json:"price_level,omitempty"` // 1-4
	Phone          string   `json:"phone,omitempty"`
	Website        string   `json:"website,omitempty"`
	OpeningHours   []string `json:"opening_hours,omitempty"`
	Description    string   `json:"description,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// NewPOI validates p: a name, coordinates in range, rating in [0,5] and price level
// in [1,4] when present.
func NewPOI(p POI) (POI, error) {
	if strings.TrimSpace(p.Name) == "" {
		return POI{}, provider.ValidationError("place has no name")
	}
	if err := p.Coordinate().Validate(); err != nil {
		return POI{}, provider.ValidationError("place %q: %v", p.Name, err)
	}
	if p.Rating != nil && (math.IsNaN(*p.Rating) || *p.Rating < MinRating || *p.Rating > MaxRating) {
		return POI{}, provider.ValidationError("place %q: rating %f out of range [0, 5]", p.Name, *p.Rating)
	}
	if p.PriceLevel != nil && (*p.PriceLevel < MinPriceLevel || *p.PriceLevel > MaxPriceLevel) {
		return POI{}, provider.ValidationError("place %q: price level %d out of range [1, 4]", p.Name, *p.PriceLevel)
	}
	return p, nil
}

// Coordinate returns the place position.
func (p POI) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// WithDistanceFrom returns a copy of p carrying its distance from c.
func (p POI) WithDistanceFrom(c geo.Coordinate) POI {
	d := geo.Haversine(c, p.Coordinate())
	p.DistanceMeters = &d
	return p
}

func (p POI) distance() float64 {
	if p.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *p.DistanceMeters
}

// Filter selects places by category around a center.
type Filter struct {
	Category      Category
	Center        geo.Location
	RadiusMeters  float64  // default 5000
	MinRating     *float64 // places without a rating are excluded when set
	MaxPriceLevel *int     // places without a price level are kept
	Limit         int
}
