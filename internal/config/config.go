// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/geoagent/geoagent/internal/llm"
)

// Component names a part of the system with its own required settings.
type Component string

// Components that can be validated.
const (
	Weather    Component = "weather"
	AirQuality Component = "airquality"
	Geocoding  Component = "geocoding"
	Routing    Component = "routing"
	POI        Component = "poi"
	Agent      Component = "agent"
)

// Config holds all runtime configuration. Empty URLs select each client's default.
type Config struct {
	Env       string
	LogLevel  string
	LogPretty bool

	OpenWeather OpenWeatherConfig
	ORS         ORSConfig
	OSM         OSMConfig
	LLM         LLMConfig
	HTTP        HTTPConfig
	Telemetry   TelemetryConfig
}

// OpenWeatherConfig configures the weather, air quality and direct geocoding clients.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string
	GeoURL  string
}

// ORSConfig configures the OpenRouteService directions client.
type ORSConfig struct {
	APIKey  string
	BaseURL string
}

// OSMConfig configures the Nominatim and Overpass clients.
type OSMConfig struct {
	NominatimURL string
	OverpassURL  string
	UserAgent    string
	CountryCodes []string
}

// LLMConfig configures the chat completion client.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
}

// HTTPConfig configures the shared upstream sessions.
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries uint64
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// Load reads .env from the working directory when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the configuration from environment variables.
func FromEnv() (Config, error) {
	var errs []error

	timeout, err := cast.ToDurationE(getEnvOrDefault("HTTP_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT: invalid duration %q", os.Getenv("HTTP_TIMEOUT")))
	}
	retries, err := cast.ToUint64E(getEnvOrDefault("HTTP_MAX_RETRIES", "0"))
	if err != nil {
		errs = append(errs, fmt.Errorf("HTTP_MAX_RETRIES: invalid count %q", os.Getenv("HTTP_MAX_RETRIES")))
	}
	pretty, err := cast.ToBoolE(getEnvOrDefault("LOG_PRETTY", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_PRETTY: invalid boolean %q", os.Getenv("LOG_PRETTY")))
	}
	otelEnabled, err := cast.ToBoolE(getEnvOrDefault("OTEL_ENABLED", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("OTEL_ENABLED: invalid boolean %q", os.Getenv("OTEL_ENABLED")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return Config{
		Env:       getEnvOrDefault("APP_ENV", "development"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogPretty: pretty,
		OpenWeather: OpenWeatherConfig{
			APIKey:  os.Getenv("OPENWEATHER_API_KEY"),
			BaseURL: os.Getenv("OPENWEATHER_BASE_URL"),
			GeoURL:  os.Getenv("OPENWEATHER_GEO_URL"),
		},
		ORS: ORSConfig{
			APIKey:  os.Getenv("ORS_API_KEY"),
			BaseURL: os.Getenv("ORS_BASE_URL"),
		},
		OSM: OSMConfig{
			NominatimURL: os.Getenv("NOMINATIM_BASE_URL"),
			OverpassURL:  os.Getenv("OVERPASS_URL"),
			UserAgent:    getEnvOrDefault("OSM_USER_AGENT", "geoagent/1.0 (https://github.com/geoagent/geoagent)"),
			CountryCodes: splitList(os.Getenv("OSM_COUNTRY_CODES")),
		},
		LLM: LLMConfig{
			APIKey:  getEnvOrDefault("OPENROUTER_API_KEY", os.Getenv("LLM_API_KEY")),
			BaseURL: getEnvOrDefault("LLM_BASE_URL", llm.DefaultBaseURL),
			Model:   getEnvOrDefault("LLM_MODEL", llm.DefaultModel),
			Referer: getEnvOrDefault("LLM_REFERER", "https://github.com/geoagent/geoagent"),
			Title:   getEnvOrDefault("LLM_TITLE", "geoagent"),
		},
		HTTP: HTTPConfig{
			Timeout:    timeout,
			MaxRetries: retries,
		},
		Telemetry: TelemetryConfig{
			Enabled:      otelEnabled,
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
	}, nil
}

// Validate reports every required setting missing for the given components.
func (c Config) Validate(components ...Component) error {
	var errs []error
	missing := func(c Component, key string) {
		errs = append(errs, fmt.Errorf("%s: %s is not set", c, key))
	}

	for _, comp := range components {
		switch comp {
		case Weather, AirQuality:
			if c.OpenWeather.APIKey == "" {
				missing(comp, "OPENWEATHER_API_KEY")
			}
		case Routing:
			if c.ORS.APIKey == "" {
				missing(comp, "ORS_API_KEY")
			}
		case Geocoding, POI:
			if c.OSM.UserAgent == "" {
				missing(comp, "OSM_USER_AGENT")
			}
		case Agent:
			if c.LLM.APIKey == "" {
				missing(comp, "OPENROUTER_API_KEY")
			}
		default:
			errs = append(errs, fmt.Errorf("unknown component %q", comp))
		}
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
