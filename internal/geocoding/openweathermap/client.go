// Package openweathermap resolves place names with the OpenWeatherMap direct
// geocoding API.
package openweathermap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/geocoding"
	"github.com/geoagent/geoagent/internal/provider"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "openweathermap-geo"

	// DefaultBaseURL is the OpenWeatherMap geocoding API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/geo/1.0"
)

// ClientConfig holds configuration for the direct geocoding client.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// Session carries the HTTP resources. If nil, the client creates its own.
	Session *provider.Session

	Logger zerolog.Logger
}

// Client is an OpenWeatherMap direct geocoding client.
type Client struct {
	apiKey  string
	baseURL string
	session *provider.Session
	logger  zerolog.Logger
}

// NewClient creates a new direct geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	session := cfg.Session
	if session == nil {
		session = provider.NewSession(provider.SessionConfig{Name: ProviderName, Logger: cfg.Logger})
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		session: session,
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

// Search returns up to limit places named name, e.g. "London" or "Paris,FR".
func (c *Client) Search(ctx context.Context, name string, limit int) ([]geocoding.Result, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("appid", c.apiKey)

	var places []directPlace
	if err := provider.GetJSON(ctx, c.session, c.baseURL+"/direct?"+q.Encode(), nil, &places); err != nil {
		return nil, err
	}

	results := make([]geocoding.Result, 0, len(places))
	for _, p := range places {
		r, err := geocoding.NewResult(geocoding.Result{
			Address:    p.label(),
			Lat:        p.Lat,
			Lon:        p.Lon,
			Confidence: 1,
			PlaceType:  "city",
			City:       p.Name,
			State:      p.State,
			Country:    p.Country,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Resolve returns the coordinates of the first match for name.
func (c *Client) Resolve(ctx context.Context, name string) (geo.Coordinate, error) {
	results, err := c.Search(ctx, name, 1)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if len(results) == 0 {
		return geo.Coordinate{}, provider.NotFoundError(ProviderName, fmt.Sprintf("location %q", name))
	}

	c.logger.Debug().
		Str("name", name).
		Float64("lat", results[0].Lat).
		Float64("lon", results[0].Lon).
		Msg("resolved location")

	return results[0].Coordinate(), nil
}

type directPlace struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

func (p directPlace) label() string {
	parts := []string{p.Name}
	if p.State != "" {
		parts = append(parts, p.State)
	}
	if p.Country != "" {
		parts = append(parts, p.Country)
	}
	return strings.Join(parts, ", ")
}
