// Package openrouteservice provides a client for the OpenRouteService directions API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/routing"
	"github.com/geoagent/geoagent/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"
)

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
	BaseURL string

	// Session carries the HTTP resources. If nil, the client creates its own.
	Session *provider.Session

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenRouteService API client.
type Client struct {
	apiKey  string
	baseURL string
	session *provider.Session
	logger  zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
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

// GetDirections retrieves route directions between two points.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) ([]routing.Route, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, provider.InputError("invalid origin: %v", err)
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, provider.InputError("invalid destination: %v", err)
	}
	profile, err := req.Mode.Profile()
	if err != nil {
		return nil, err
	}

	orsReq := orsRequest{
		// ORS uses [lon, lat] order (GeoJSON)
		Coordinates: [][]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
	}
	if req.MaxAlternatives > 0 {
		orsReq.AlternativeRoutes = &alternativeRoutesOpts{
			// the main route counts towards the target
			TargetCount:  req.MaxAlternatives + 1,
			WeightFactor: 1.4,
			ShareFactor:  0.6,
		}
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")

	c.logger.Debug().
		Str("profile", string(profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting directions from ORS")

	resp, err := c.session.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.TransientError(ProviderName, fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, respBody)
	}

	var orsResp orsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, provider.ValidationError("decoding directions response: %v", err)
	}

	routes, err := toRoutes(&orsResp, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("route_count", len(routes)).
		Msg("received directions from ORS")

	return routes, nil
}

// handleErrorResponse maps ORS error responses to the error taxonomy. ORS reports
// an unroutable pair as a 404 or as a 400 carrying code 2009/2010.
func handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil || orsErr.Error.Message == "" {
		return provider.APIError(ProviderName, statusCode, string(body))
	}

	switch {
	case statusCode == http.StatusNotFound,
		orsErr.Error.Code == orsErrorCodeNotFound,
		orsErr.Error.Code == orsErrorCodePointNotFound:
		return &provider.Error{
			Provider:   ProviderName,
			Code:       "NO_ROUTE",
			Message:    orsErr.Error.Message,
			StatusCode: statusCode,
			Guidance:   "No route exists between these points for the chosen mode.",
			Err:        provider.ErrLocationNotFound,
		}
	default:
		return provider.APIError(ProviderName, statusCode, orsErr.Error.Message)
	}
}

// toRoutes converts the ORS response to domain routes. Step endpoints are looked up
// in the decoded geometry through the step way point indices.
func toRoutes(resp *orsResponse, req routing.DirectionsRequest) ([]routing.Route, error) {
	routes := make([]routing.Route, 0, len(resp.Routes))

	for i := range resp.Routes {
		orsRoute := &resp.Routes[i]

		points, err := polyline.Decode(orsRoute.Geometry)
		if err != nil {
			return nil, provider.ValidationError("route %d geometry: %v", i, err)
		}

		route := routing.Route{
			Origin:          req.Origin,
			Destination:     req.Destination,
			DistanceMeters:  orsRoute.Summary.Distance,
			DurationSeconds: orsRoute.Summary.Duration,
			Mode:            req.Mode,
			Polyline:        orsRoute.Geometry,
		}

		if len(orsRoute.BBox) >= 4 {
			route.BoundingBox = &routing.BoundingBox{
				MinLon: orsRoute.BBox[0],
				MinLat: orsRoute.BBox[1],
				MaxLon: orsRoute.BBox[2],
				MaxLat: orsRoute.BBox[3],
			}
		}

		for j := range orsRoute.Segments {
			segment := &orsRoute.Segments[j]
			for k := range segment.Steps {
				route.Steps = append(route.Steps, toStep(&segment.Steps[k], points, req))
			}
			for _, w := range segment.Warnings {
				route.Warnings = append(route.Warnings, w.Message)
			}
		}
		for _, w := range orsRoute.Warnings {
			route.Warnings = append(route.Warnings, w.Message)
		}

		route.Summary = generateRouteSummary(route.Steps)

		if err := route.Validate(); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func toStep(s *routeStep, points []geo.Coordinate, req routing.DirectionsRequest) routing.Step {
	step := routing.Step{
		Instruction:     s.Instruction,
		DistanceMeters:  s.Distance,
		DurationSeconds: s.Duration,
		Start:           req.Origin,
		End:             req.Destination,
		Maneuver:        maneuver(s.Type),
	}
	if len(s.WayPoints) == 2 {
		if p, ok := pointAt(points, s.WayPoints[0]); ok {
			step.Start = p
		}
		if p, ok := pointAt(points, s.WayPoints[1]); ok {
			step.End = p
		}
	}
	return step
}

func pointAt(points []geo.Coordinate, i int) (geo.Coordinate, bool) {
	if i < 0 || i >= len(points) {
		return geo.Coordinate{}, false
	}
	return points[i], true
}

// maneuver names the ORS instruction type.
func maneuver(t int) string {
	if t >= 0 && t < len(maneuverNames) {
		return maneuverNames[t]
	}
	return ""
}

// generateRouteSummary names the longest step, which is usually the main road.
func generateRouteSummary(steps []routing.Step) string {
	best := -1
	for i := range steps {
		if steps[i].Instruction == "" || steps[i].DistanceMeters <= 500 {
			continue
		}
		if best < 0 || steps[i].DistanceMeters > steps[best].DistanceMeters {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return steps[best].Instruction
}
