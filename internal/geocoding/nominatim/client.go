// Package nominatim implements geocoding on the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/geocoding"
	"github.com/geoagent/geoagent/internal/provider"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// defaultConfidence stands in when a match carries no importance score.
	defaultConfidence = 0.5
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	BaseURL string

	// Session carries the HTTP resources. Nominatim requires an identifying
	// User-Agent, set on the session.
	Session *provider.Session

	// Limiter throttles requests. Defaults to 1 request per second, the public
	// instance's usage policy.
	Limiter *rate.Limiter

	Logger zerolog.Logger
}

// Client is a Nominatim API client.
type Client struct {
	baseURL string
	session *provider.Session
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	session := cfg.Session
	if session == nil {
		session = provider.NewSession(provider.SessionConfig{Name: ProviderName, Logger: cfg.Logger})
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 1)
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

// Search runs a free-form query and returns up to limit matches.
func (c *Client) Search(ctx context.Context, query string, limit int, countryCodes []string) ([]geocoding.Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))
	if len(countryCodes) > 0 {
		q.Set("countrycodes", strings.ToLower(strings.Join(countryCodes, ",")))
	}

	results, err := c.search(ctx, q)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("query", query).Int("results", len(results)).Msg("nominatim search")
	return results, nil
}

// SearchViewbox runs a free-form query restricted to the box around center.
func (c *Client) SearchViewbox(ctx context.Context, query string, center geo.Coordinate, radiusMeters float64, limit int) ([]geocoding.Result, error) {
	dLat := radiusMeters / 111_320
	dLon := dLat / max(0.01, cosDeg(center.Lat))

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("bounded", "1")
	q.Set("viewbox", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
		center.Lon-dLon, center.Lat+dLat, center.Lon+dLon, center.Lat-dLat))

	return c.search(ctx, q)
}

// Reverse returns the address nearest to coord.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (*geocoding.Result, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", coord.Lat))
	q.Set("lon", fmt.Sprintf("%.6f", coord.Lon))
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")

	var p place
	if err := c.get(ctx, "/reverse", q, &p); err != nil {
		return nil, err
	}
	if p.Error != "" {
		return nil, provider.NotFoundError(ProviderName, "address at "+coord.String())
	}

	r, err := p.toResult()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) search(ctx context.Context, q url.Values) ([]geocoding.Result, error) {
	var places []place
	if err := c.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}

	results := make([]geocoding.Result, 0, len(places))
	for _, p := range places {
		r, err := p.toResult()
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("nominatim rate limiter: %w", err)
	}
	return provider.GetJSON(ctx, c.session, c.baseURL+path+"?"+q.Encode(), nil, out)
}

func cosDeg(deg float64) float64 {
	return math.Cos(deg * math.Pi / 180)
}
