// Package openweathermap implements the air quality provider on the OpenWeatherMap
// Air Pollution API.
package openweathermap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/airquality"
	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "openweathermap-air"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the air pollution client.
type ClientConfig struct {
	APIKey  string
	BaseURL string

	// Session carries the HTTP resources. If nil, the client creates its own.
	Session *provider.Session

	Logger zerolog.Logger
}

// Client is an OpenWeatherMap Air Pollution API client.
type Client struct {
	apiKey  string
	baseURL string
	session *provider.Session
	logger  zerolog.Logger
}

// NewClient creates a new air pollution client.
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

// Close releases the client's session.
func (c *Client) Close() error {
	return c.session.Close()
}

// Current fetches the latest reading.
func (c *Client) Current(ctx context.Context, coord geo.Coordinate) (*airquality.Reading, error) {
	var resp pollutionResponse
	if err := provider.GetJSON(ctx, c.session, c.endpoint("/air_pollution", coord, nil), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, provider.ValidationError("air pollution: empty response")
	}

	r, err := resp.List[0].toReading()
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Int("aqi", r.AQI).
		Msg("fetched air quality")

	return r, nil
}

// Forecast fetches the hourly forecast.
func (c *Client) Forecast(ctx context.Context, coord geo.Coordinate) ([]airquality.ForecastPoint, error) {
	var resp pollutionResponse
	if err := provider.GetJSON(ctx, c.session, c.endpoint("/air_pollution/forecast", coord, nil), nil, &resp); err != nil {
		return nil, err
	}

	points := make([]airquality.ForecastPoint, 0, len(resp.List))
	for _, item := range resp.List {
		p, err := airquality.NewForecastPoint(airquality.ForecastPoint{
			Time: time.Unix(item.Dt, 0).UTC(),
			AQI:  item.Main.AQI,
			PM25: item.Components.PM25,
			PM10: item.Components.PM10,
			O3:   item.Components.O3,
		})
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// History fetches readings between start and end.
func (c *Client) History(ctx context.Context, coord geo.Coordinate, start, end time.Time) ([]airquality.Reading, error) {
	extra := url.Values{}
	extra.Set("start", strconv.FormatInt(start.Unix(), 10))
	extra.Set("end", strconv.FormatInt(end.Unix(), 10))

	var resp pollutionResponse
	if err := provider.GetJSON(ctx, c.session, c.endpoint("/air_pollution/history", coord, extra), nil, &resp); err != nil {
		return nil, err
	}

	readings := make([]airquality.Reading, 0, len(resp.List))
	for _, item := range resp.List {
		r, err := item.toReading()
		if err != nil {
			return nil, err
		}
		readings = append(readings, *r)
	}
	return readings, nil
}

func (c *Client) endpoint(path string, coord geo.Coordinate, extra url.Values) string {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("lat", fmt.Sprintf("%.6f", coord.Lat))
	q.Set("lon", fmt.Sprintf("%.6f", coord.Lon))
	q.Set("appid", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}

type pollutionResponse struct {
	List []pollutionItem `json:"list"`
}

type pollutionItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components struct {
		CO   float64 `json:"co"`
		NO   float64 `json:"no"`
		NO2  float64 `json:"no2"`
		O3   float64 `json:"o3"`
		SO2  float64 `json:"so2"`
		PM25 float64 `json:"pm2_5"`
		PM10 float64 `json:"pm10"`
		NH3  float64 `json:"nh3"`
	} `json:"components"`
}

func (item pollutionItem) toReading() (*airquality.Reading, error) {
	return airquality.NewReading(airquality.Reading{
		AQI:        item.Main.AQI,
		CO:         item.Components.CO,
		NO:         item.Components.NO,
		NO2:        item.Components.NO2,
		O3:         item.Components.O3,
		SO2:        item.Components.SO2,
		PM25:       item.Components.PM25,
		PM10:       item.Components.PM10,
		NH3:        item.Components.NH3,
		MeasuredAt: time.Unix(item.Dt, 0).UTC(),
	})
}
