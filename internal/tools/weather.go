package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoagent/geoagent/internal/airquality"
	"github.com/geoagent/geoagent/internal/weather"
)

// locationParams adds the name-or-coordinates parameters shared by the weather tools.
func locationParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("location",
			mcp.Description("City or place name, e.g. \"Paris\" or \"Austin, US\". Omit when latitude and longitude are given"),
		),
		mcp.WithNumber("latitude",
			mcp.Description("Latitude in decimal degrees"),
			mcp.Min(-90), mcp.Max(90),
		),
		mcp.WithNumber("longitude",
			mcp.Description("Longitude in decimal degrees"),
			mcp.Min(-180), mcp.Max(180),
		),
	}
}

func newTool(name, description string, opts []mcp.ToolOption, h Handler) Tool {
	all := append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)
	return Tool{Definition: mcp.NewTool(name, all...), Invoke: h}
}

// WeatherTools returns the weather and air quality tools.
func WeatherTools(weatherSvc *weather.Service, aqSvc *airquality.Service) []Tool {
	return []Tool{
		newTool("get_current_weather",
			"Get current weather conditions (temperature, humidity, wind, description) for a location",
			locationParams(),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				return weatherSvc.GetCurrentWeather(ctx, loc)
			}),

		newTool("get_forecast",
			"Get the 5 day weather forecast in 3 hour steps for a location",
			locationParams(),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				return weatherSvc.GetForecast(ctx, loc)
			}),

		newTool("get_daily_summary",
			"Get a per-day weather summary (min/max temperature, rain chance) for the next days",
			locationParams(),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				days, err := weatherSvc.GetDailySummary(ctx, loc)
				if err != nil {
					return nil, err
				}
				return map[string]any{"location": loc.String(), "days": days}, nil
			}),

		newTool("get_air_quality",
			"Get the current air quality index and pollutant concentrations for a location",
			locationParams(),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				r, err := aqSvc.GetCurrent(ctx, loc)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"location":              loc.String(),
					"aqi":                   r.AQI,
					"quality":               r.Description(),
					"health_recommendation": r.HealthRecommendation(),
					"components":            r,
				}, nil
			}),

		newTool("get_pollution_forecast",
			"Get the hourly air quality forecast for a location",
			append(locationParams(),
				mcp.WithNumber("hours",
					mcp.Description("Number of forecast hours to return"),
					mcp.DefaultNumber(airquality.DefaultForecastHours),
					mcp.Min(1), mcp.Max(airquality.MaxForecastHours),
				),
			),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				points, err := aqSvc.GetForecast(ctx, loc, args.Int("hours", airquality.DefaultForecastHours))
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, len(points))
				for i, p := range points {
					out[i] = map[string]any{
						"time":    p.Time,
						"aqi":     p.AQI,
						"quality": p.Description(),
						"pm2_5":   p.PM25,
						"pm10":    p.PM10,
						"o3":      p.O3,
					}
				}
				return map[string]any{"location": loc.String(), "forecast": out}, nil
			}),
	}
}
