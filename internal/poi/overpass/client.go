// Package overpass finds OpenStreetMap features through the Overpass API.
package overpass

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/poi"
	"github.com/geoagent/geoagent/internal/provider"
)

const (
	// ProviderName identifies this POI provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the public Overpass interpreter.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	queryTimeoutSeconds = 25
)

// categoryTags maps generic categories to OSM tag filters. Each key is queried
// separately and the results are unioned.
var categoryTags = map[poi.Category]map[string][]string{
	poi.CategoryRestaurant:     {"amenity": {"restaurant", "fast_food", "food_court"}},
	poi.CategoryCafe:           {"amenity": {"cafe"}},
	poi.CategoryBar:            {"amenity": {"bar", "pub", "biergarten"}},
	poi.CategoryHotel:          {"tourism": {"hotel", "motel", "hostel", "guest_house"}},
	poi.CategoryMuseum:         {"tourism": {"museum", "gallery"}},
	poi.CategoryPark:           {"leisure": {"park", "garden", "nature_reserve"}},
	poi.CategoryShopping:       {"shop": {"mall", "department_store", "clothes", "convenience"}},
	poi.CategorySupermarket:    {"shop": {"supermarket"}},
	poi.CategoryHospital:       {"amenity": {"hospital", "clinic"}},
	poi.CategoryPharmacy:       {"amenity": {"pharmacy"}},
	poi.CategoryGasStation:     {"amenity": {"fuel"}},
	poi.CategoryATM:            {"amenity": {"atm"}},
	poi.CategoryBank:           {"amenity": {"bank"}},
	poi.CategoryParking:        {"amenity": {"parking"}},
	poi.CategoryTransitStation: {"railway": {"station", "halt", "subway_entrance"}, "public_transport": {"station"}},
	poi.CategoryEntertainment:  {"amenity": {"cinema", "theatre", "nightclub", "arts_centre"}},
	poi.CategoryEducation:      {"amenity": {"school", "university", "college", "library"}},
	poi.CategoryLandmark:       {"tourism": {"attraction", "viewpoint"}, "historic": {"monument", "memorial", "castle"}},
}

// anyFeature is used when no category is given.
var anyFeature = map[string][]string{"amenity": nil, "shop": nil, "tourism": nil, "leisure": nil}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	BaseURL string

	// Session carries the HTTP resources (optional).
	Session *provider.Session

	// Limiter throttles requests. Defaults to one request every two seconds with
	// a burst of two, within the public instance's slot allowance.
	Limiter *rate.Limiter

	Logger zerolog.Logger
}

// Client is an Overpass API client.
type Client struct {
	baseURL string
	session *provider.Session
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a new Overpass client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	session := cfg.Session
	if session == nil {
		session = provider.NewSession(provider.SessionConfig{Name: ProviderName, Logger: cfg.Logger})
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(2*time.Second), 2)
	}

	return &Client{
		baseURL: baseURL,
		session: session,
		limiter: limiter,
		logger:  cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Close releases the client's session.
func (c *Client) Close() error {
	return c.session.Close()
}

// Nearby returns named features within radius meters of center. Unknown
// categories are matched as an amenity value.
func (c *Client) Nearby(ctx context.Context, center geo.Coordinate, radius float64, category poi.Category) ([]poi.POI, error) {
	if err := center.Validate(); err != nil {
		return nil, provider.InputError("%v", err)
	}

	tags := anyFeature
	if category != "" {
		var ok bool
		if tags, ok = categoryTags[category]; !ok {
			tags = map[string][]string{"amenity": {string(category)}}
		}
	}

	q := newQuery(queryTimeoutSeconds)
	for _, key := range sortedKeys(tags) {
		q.around(center, radius, key, tags[key])
	}
	query := q.build()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("overpass rate limiter: %w", err)
	}

	var resp response
	if err := provider.GetJSON(ctx, c.session, c.baseURL+"?"+url.Values{"data": {query}}.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	places := make([]poi.POI, 0, len(resp.Elements))
	for i := range resp.Elements {
		el := &resp.Elements[i]
		if el.Tags["name"] == "" {
			continue
		}
		p, err := poi.NewPOI(el.toPOI(category))
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}

	c.logger.Debug().
		Float64("lat", center.Lat).
		Float64("lon", center.Lon).
		Float64("radius", radius).
		Str("category", string(category)).
		Int("elements", len(resp.Elements)).
		Int("places", len(places)).
		Msg("overpass search")

	return places, nil
}

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (e *element) toPOI(requested poi.Category) poi.POI {
	lat, lon := e.Lat, e.Lon
	if e.Center != nil {
		lat, lon = e.Center.Lat, e.Center.Lon
	}

	category := requested
	if category == "" {
		category = e.category()
	}

	p := poi.POI{
		ID:           fmt.Sprintf("%s/%d", e.Type, e.ID),
		Name:         e.Tags["name"],
		Category:     category,
		Lat:          lat,
		Lon:          lon,
		Address:      e.address(),
		Phone:        firstTag(e.Tags, "phone", "contact:phone"),
		Website:      firstTag(e.Tags, "website", "contact:website", "url"),
		OpeningHours: splitHours(e.Tags["opening_hours"]),
		Description:  e.Tags["description"],
		Rating:       parseStars(e.Tags["stars"]),
		PriceLevel:   parsePriceRange(e.Tags["price_range"]),
	}
	return p
}

// category derives a generic category from the element's own tags.
func (e *element) category() poi.Category {
	for _, c := range poi.Categories {
		for key, values := range categoryTags[c] {
			v := e.Tags[key]
			for _, want := range values {
				if v == want {
					return c
				}
			}
		}
	}
	for _, key := range []string{"amenity", "shop", "tourism", "leisure"} {
		if v := e.Tags[key]; v != "" {
			if key == "amenity" {
				return poi.Category(v)
			}
			return poi.Category(key + ":" + v)
		}
	}
	return ""
}

func (e *element) address() string {
	street := strings.TrimSpace(e.Tags["addr:housenumber"] + " " + e.Tags["addr:street"])
	parts := make([]string, 0, 3)
	for _, s := range []string{street, e.Tags["addr:city"], e.Tags["addr:postcode"]} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

func splitHours(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseStars reads hotel star tags such as "4" or "3S". Values outside [0,5] are dropped.
func parseStars(s string) *float64 {
	s = strings.TrimRight(strings.TrimSpace(s), "Ss")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < poi.MinRating || v > poi.MaxRating {
		return nil
	}
	return &v
}

// parsePriceRange reads "$" through "$$$$".
func parsePriceRange(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "$") != "" {
		return nil
	}
	n := len(s)
	if n < poi.MinPriceLevel || n > poi.MaxPriceLevel {
		return nil
	}
	return &n
}
