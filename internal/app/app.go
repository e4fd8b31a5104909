// Package app wires configuration, upstream sessions, services and tool sets
// together for the command line binaries.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/agent"
	"github.com/geoagent/geoagent/internal/airquality"
	aqowm "github.com/geoagent/geoagent/internal/airquality/openweathermap"
	"github.com/geoagent/geoagent/internal/config"
	"github.com/geoagent/geoagent/internal/geocoding"
	geoowm "github.com/geoagent/geoagent/internal/geocoding/openweathermap"
	"github.com/geoagent/geoagent/internal/geocoding/nominatim"
	"github.com/geoagent/geoagent/internal/llm"
	"github.com/geoagent/geoagent/internal/poi"
	"github.com/geoagent/geoagent/internal/poi/overpass"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/provider/resilience"
	"github.com/geoagent/geoagent/internal/routing"
	"github.com/geoagent/geoagent/internal/routing/openrouteservice"
	"github.com/geoagent/geoagent/internal/tools"
	"github.com/geoagent/geoagent/internal/weather"
	weatherowm "github.com/geoagent/geoagent/internal/weather/openweathermap"
)

// Tool set names accepted by App.ToolSet.
const (
	ToolSetWeather = "weather"
	ToolSetMap     = "map"
	ToolSetAll     = "all"
)

// NewLogger builds the process logger the way every binary does: JSON on stdout,
// or a console writer on stderr when cfg.LogPretty is set.
func NewLogger(cfg config.Config, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

// App owns every upstream session of the process.
type App struct {
	Weather    *weather.Service
	AirQuality *airquality.Service
	Geocoding  *geocoding.Service
	Routing    *routing.Service
	POI        *poi.Service
	LLM        *llm.Client

	// Health tracks the circuit breaker state of every upstream.
	Health *resilience.Registry

	closers []io.Closer
	logger  zerolog.Logger
}

// New builds all clients and services. Missing API keys are not checked here;
// call cfg.Validate for the components in use.
func New(cfg config.Config, logger zerolog.Logger) *App {
	a := &App{
		Health: resilience.NewRegistry(),
		logger: logger,
	}

	session := func(name, userAgent string) *provider.Session {
		return provider.NewSession(provider.SessionConfig{
			Name:       name,
			UserAgent:  userAgent,
			Timeout:    cfg.HTTP.Timeout,
			MaxRetries: cfg.HTTP.MaxRetries,
			Registry:   a.Health,
			Traced:     cfg.Telemetry.Enabled,
			Logger:     logger,
		})
	}

	weatherClient := weatherowm.NewClient(weatherowm.ClientConfig{
		APIKey:  cfg.OpenWeather.APIKey,
		BaseURL: cfg.OpenWeather.BaseURL,
		Session: session(weatherowm.ProviderName, ""),
		Logger:  logger,
	})
	airClient := aqowm.NewClient(aqowm.ClientConfig{
		APIKey:  cfg.OpenWeather.APIKey,
		BaseURL: cfg.OpenWeather.BaseURL,
		Session: session(aqowm.ProviderName, ""),
		Logger:  logger,
	})
	directGeocoder := geoowm.NewClient(geoowm.ClientConfig{
		APIKey:  cfg.OpenWeather.APIKey,
		BaseURL: cfg.OpenWeather.GeoURL,
		Session: session(geoowm.ProviderName, ""),
		Logger:  logger,
	})
	nominatimClient := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL: cfg.OSM.NominatimURL,
		Session: session(nominatim.ProviderName, cfg.OSM.UserAgent),
		Logger:  logger,
	})
	orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
		APIKey:  cfg.ORS.APIKey,
		BaseURL: cfg.ORS.BaseURL,
		Session: session(openrouteservice.ProviderName, ""),
		Logger:  logger,
	})
	overpassClient := overpass.NewClient(overpass.ClientConfig{
		BaseURL: cfg.OSM.OverpassURL,
		Session: session(overpass.ProviderName, cfg.OSM.UserAgent),
		Logger:  logger,
	})
	a.LLM = llm.NewClient(llm.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Referer: cfg.LLM.Referer,
		Title:   cfg.LLM.Title,
		Session: session(llm.ProviderName, ""),
		Logger:  logger,
	})

	a.closers = []io.Closer{
		weatherClient, airClient, directGeocoder, nominatimClient, orsClient, overpassClient, a.LLM,
	}

	a.Weather = weather.NewService(weather.ServiceConfig{
		Provider: weatherClient,
		Resolver: directGeocoder,
		Logger:   logger,
	})
	a.AirQuality = airquality.NewService(airquality.ServiceConfig{
		Provider: airClient,
		Resolver: directGeocoder,
		Logger:   logger,
	})
	a.Geocoding = geocoding.NewService(geocoding.ServiceConfig{
		Provider:     nominatimClient,
		CountryCodes: cfg.OSM.CountryCodes,
		Logger:       logger,
	})
	a.Routing = routing.NewService(routing.ServiceConfig{
		Provider: orsClient,
		Resolver: a.Geocoding,
		Logger:   logger,
	})
	a.POI = poi.NewService(poi.ServiceConfig{
		Provider:     overpassClient,
		TextSearcher: nominatimClient,
		Resolver:     a.Geocoding,
		CountryCodes: cfg.OSM.CountryCodes,
		Logger:       logger,
	})

	return a
}

// ToolSet returns the tools of the named set along with the prompt domain and
// selection examples that go with it.
func (a *App) ToolSet(name string) ([]tools.Tool, string, []agent.Example, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ToolSetWeather:
		return tools.WeatherTools(a.Weather, a.AirQuality), "weather", agent.WeatherExamples, nil
	case ToolSetMap:
		return tools.MapTools(a.Geocoding, a.Routing, a.POI), "map services", agent.MapExamples, nil
	case ToolSetAll, "":
		all := append(tools.WeatherTools(a.Weather, a.AirQuality), tools.MapTools(a.Geocoding, a.Routing, a.POI)...)
		examples := append(append([]agent.Example{}, agent.WeatherExamples...), agent.MapExamples...)
		return all, "weather and map services", examples, nil
	default:
		return nil, "", nil, fmt.Errorf("unknown tool set %q (want %s, %s or %s)", name, ToolSetWeather, ToolSetMap, ToolSetAll)
	}
}

// Components lists the configuration components a tool set depends on.
func Components(toolSet string) []config.Component {
	switch strings.ToLower(strings.TrimSpace(toolSet)) {
	case ToolSetWeather:
		return []config.Component{config.Weather, config.AirQuality}
	case ToolSetMap:
		return []config.Component{config.Geocoding, config.Routing, config.POI}
	default:
		return []config.Component{config.Weather, config.AirQuality, config.Geocoding, config.Routing, config.POI}
	}
}

// Close releases every session. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	for _, h := range a.Health.Snapshot() {
		a.logger.Debug().
			Str("provider", h.Name).
			Str("status", h.Status()).
			Uint32("requests", h.Counts.Requests).
			Uint32("failures", h.Counts.TotalFailures).
			Msg("upstream health")
	}
	return errors.Join(errs...)
}
