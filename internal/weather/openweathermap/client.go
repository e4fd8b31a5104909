package openweathermap

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// Session carries the HTTP resources. If nil, the client creates its own.
	Session *provider.Session

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey  string
	baseURL string
	session *provider.Session
	logger  zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
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

// CurrentByCoordinates fetches current weather for a location.
func (c *Client) CurrentByCoordinates(ctx context.Context, coord geo.Coordinate) (*weather.CurrentWeather, error) {
	var resp currentWeatherResponse
	if err := provider.GetJSON(ctx, c.session, c.endpoint("/weather", coord), nil, &resp); err != nil {
		return nil, err
	}

	w, err := toCurrentWeather(&resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Float64("temperature", w.Temperature).
		Msg("fetched current weather")

	return w, nil
}

// ForecastByCoordinates fetches the 5 day / 3 hour forecast for a location.
func (c *Client) ForecastByCoordinates(ctx context.Context, coord geo.Coordinate) (*weather.Forecast, error) {
	var resp forecastResponse
	if err := provider.GetJSON(ctx, c.session, c.endpoint("/forecast", coord), nil, &resp); err != nil {
		return nil, err
	}

	f, err := toForecast(&resp, coord)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Int("entries", len(f.Entries)).
		Msg("fetched forecast")

	return f, nil
}

func (c *Client) endpoint(path string, coord geo.Coordinate) string {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", coord.Lat))
	q.Set("lon", fmt.Sprintf("%.6f", coord.Lon))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	return c.baseURL + path + "?" + q.Encode()
}

func toCurrentWeather(resp *currentWeatherResponse) (*weather.CurrentWeather, error) {
	if resp.Main == nil {
		return nil, provider.ValidationError("current weather: missing main block")
	}
	if len(resp.Weather) == 0 {
		return nil, provider.ValidationError("current weather: missing conditions")
	}

	w := &weather.CurrentWeather{
		Location:      resp.Name,
		Coordinate:    geo.Coordinate{Lat: resp.Coord.Lat, Lon: resp.Coord.Lon},
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Humidity:      resp.Main.Humidity,
		Pressure:      resp.Main.Pressure,
		WindSpeed:     resp.Wind.Speed,
		WindDirection: resp.Wind.Deg,
		Condition:     mapCondition(resp.Weather[0].Main),
		Description:   resp.Weather[0].Description,
		Icon:          resp.Weather[0].Icon,
		Clouds:        resp.Clouds.All,
		Visibility:    resp.Visibility,
		ObservedAt:    time.Unix(resp.Dt, 0).UTC(),
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func toForecast(resp *forecastResponse, coord geo.Coordinate) (*weather.Forecast, error) {
	f := &weather.Forecast{
		Location:   resp.City.Name,
		Coordinate: coord,
		Timezone:   time.FixedZone("local", resp.City.Timezone),
		Entries:    make([]weather.ForecastEntry, 0, len(resp.List)),
	}

	for i, item := range resp.List {
		if item.Main == nil || len(item.Weather) == 0 {
			return nil, provider.ValidationError("forecast entry %d: missing fields", i)
		}

		e := weather.ForecastEntry{
			Time:                     time.Unix(item.Dt, 0).UTC(),
			Temperature:              item.Main.Temp,
			FeelsLike:                item.Main.FeelsLike,
			Humidity:                 item.Main.Humidity,
			Pressure:                 item.Main.Pressure,
			WindSpeed:                item.Wind.Speed,
			Condition:                mapCondition(item.Weather[0].Main),
			Description:              item.Weather[0].Description,
			PrecipitationProbability: item.Pop,
			Clouds:                   item.Clouds.All,
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		f.Entries = append(f.Entries, e)
	}

	return f, nil
}

// mapCondition maps OpenWeatherMap condition to domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Dust", "Sand", "Ash", "Squall", "Tornado", "Smoke":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}

// OpenWeatherMap API response structures.

type condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type currentWeatherResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather    []condition `json:"weather"`
	Main       *mainBlock  `json:"main"`
	Visibility *int        `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}

type forecastResponse struct {
	List []struct {
		Dt      int64       `json:"dt"`
		Main    *mainBlock  `json:"main"`
		Weather []condition `json:"weather"`
		Clouds  struct {
			All int `json:"all"`
		} `json:"clouds"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"` // Probability of precipitation
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"` // offset from UTC in seconds
	} `json:"city"`
}
