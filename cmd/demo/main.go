// Package main exercises each upstream service directly, without the agent,
// and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/app"
	"github.com/geoagent/geoagent/internal/config"
	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/poi"
	"github.com/geoagent/geoagent/internal/routing"
)

// Version is set at compile time via ldflags.
var Version = "dev"

type demo struct {
	name      string
	component config.Component
	run       func(ctx context.Context, a *app.App) error
}

var demos = []demo{
	{"weather", config.Weather, weatherDemo},
	{"airquality", config.AirQuality, airQualityDemo},
	{"geocoding", config.Geocoding, geocodingDemo},
	{"routing", config.Routing, routingDemo},
	{"poi", config.POI, poiDemo},
}

func main() {
	service := flag.String("service", "all", "service to demo: weather, airquality, geocoding, routing, poi or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	log := app.NewLogger(cfg, "geoagent-demo", Version)

	var selected []demo
	for _, d := range demos {
		if *service == "all" || *service == d.name {
			selected = append(selected, d)
		}
	}
	if len(selected) == 0 {
		log.Fatal().Str("service", *service).Msg("unknown service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := app.New(cfg, log)

	failed := 0
	for _, d := range selected {
		if err := cfg.Validate(d.component); err != nil {
			log.Warn().Err(err).Str("service", d.name).Msg("skipping demo")
			continue
		}
		fmt.Printf("\n=== %s ===\n", d.name)
		if err := d.run(ctx, a); err != nil {
			failed++
			log.Error().Err(err).Str("service", d.name).Msg("demo failed")
		}
	}

	stop()
	printHealth(log, a)
	if err := a.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close sessions")
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func weatherDemo(ctx context.Context, a *app.App) error {
	current, err := a.Weather.GetCurrentWeather(ctx, geo.ByName("London"))
	if err != nil {
		return err
	}
	printJSON("current weather in London", current)

	days, err := a.Weather.GetDailySummary(ctx, geo.ByCoordinates(48.8566, 2.3522))
	if err != nil {
		return err
	}
	printJSON("daily summary for Paris", days)
	return nil
}

func airQualityDemo(ctx context.Context, a *app.App) error {
	reading, err := a.AirQuality.GetCurrent(ctx, geo.ByName("Beijing"))
	if err != nil {
		return err
	}
	printJSON("air quality in Beijing", reading)

	end := time.Now().UTC().Truncate(time.Hour)
	history, err := a.AirQuality.GetHistory(ctx, geo.ByName("Beijing"), end.Add(-6*time.Hour), end)
	if err != nil {
		return err
	}
	printJSON("last 6 hours in Beijing", history)
	return nil
}

func geocodingDemo(ctx context.Context, a *app.App) error {
	results, err := a.Geocoding.ForwardGeocode(ctx, "Empire State Building", 3)
	if err != nil {
		return err
	}
	printJSON("geocode Empire State Building", results)

	reverse, err := a.Geocoding.ReverseGeocode(ctx, 40.7484, -73.9857)
	if err != nil {
		return err
	}
	printJSON("reverse geocode 40.7484,-73.9857", reverse)

	batch, err := a.Geocoding.BatchGeocode(ctx, []string{"Eiffel Tower", "Big Ben", "Colosseum"})
	if err != nil {
		return err
	}
	printJSON("batch geocode", batch)
	return nil
}

func routingDemo(ctx context.Context, a *app.App) error {
	route, err := a.Routing.CalculateRoute(ctx,
		geo.ByName("Empire State Building"), geo.ByName("Central Park"), routing.ModeWalking)
	if err != nil {
		return err
	}
	printJSON("walking route Empire State Building to Central Park", map[string]any{
		"distance_km":      route.DistanceKm(),
		"duration_minutes": route.DurationMinutes(),
		"steps":            len(route.Steps),
	})

	matrix, err := a.Routing.DistanceMatrix(ctx,
		[]geo.Location{geo.ByCoordinates(40.7484, -73.9857)},
		[]geo.Location{geo.ByCoordinates(40.7829, -73.9654), geo.ByCoordinates(40.7580, -73.9855)},
		routing.ModeDriving)
	if err != nil {
		return err
	}
	printJSON("driving distance matrix", matrix)
	return nil
}

func poiDemo(ctx context.Context, a *app.App) error {
	nearby, err := a.POI.SearchNearby(ctx, geo.ByName("Times Square"), 500, poi.CategoryRestaurant, 5)
	if err != nil {
		return err
	}
	printJSON("restaurants near Times Square", nearby)

	details, err := a.POI.PlaceDetails(ctx, "Central Park")
	if err != nil {
		return err
	}
	printJSON("Central Park", details)
	return nil
}

func printJSON(title string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%s: %v\n", title, err)
		return
	}
	fmt.Printf("--- %s ---\n%s\n", title, b)
}

func printHealth(log zerolog.Logger, a *app.App) {
	for _, h := range a.Health.Snapshot() {
		if h.Counts.Requests == 0 {
			continue
		}
		log.Info().
			Str("provider", h.Name).
			Str("status", h.Status()).
			Uint32("requests", h.Counts.Requests).
			Uint32("failures", h.Counts.TotalFailures).
			Str("last_error", h.LastError).
			Msg("upstream health")
	}
}
