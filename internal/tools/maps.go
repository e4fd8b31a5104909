package tools

import (
	"context"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/geocoding"
	"github.com/geoagent/geoagent/internal/poi"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/routing"
)

// modeParam offers only the modes that map to a routing profile.
func modeParam() mcp.ToolOption {
	modes := make([]string, 0, len(routing.Modes))
	for _, m := range routing.Modes {
		if _, err := m.Profile(); err == nil {
			modes = append(modes, string(m))
		}
	}
	return mcp.WithString("mode",
		mcp.Description("Travel mode. Public transit is not supported"),
		mcp.Enum(modes...),
		mcp.DefaultString(string(routing.ModeDriving)),
	)
}

func endpointParams(prefix, latKey, lonKey, what string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(prefix,
			mcp.Description(what+" address or place name. Omit when coordinates are given"),
		),
		mcp.WithNumber(latKey, mcp.Description(what+" latitude"), mcp.Min(-90), mcp.Max(90)),
		mcp.WithNumber(lonKey, mcp.Description(what+" longitude"), mcp.Min(-180), mcp.Max(180)),
	}
}

// MapTools returns the geocoding, routing and place search tools.
func MapTools(geoSvc *geocoding.Service, routeSvc *routing.Service, poiSvc *poi.Service) []Tool {
	var routeParams []mcp.ToolOption
	routeParams = append(routeParams, endpointParams("origin", "origin_lat", "origin_lon", "Start")...)
	routeParams = append(routeParams, endpointParams("destination", "dest_lat", "dest_lon", "Destination")...)
	routeParams = append(routeParams, modeParam())

	return []Tool{
		newTool("geocode_address",
			"Convert an address or place name into coordinates",
			[]mcp.ToolOption{
				mcp.WithString("address", mcp.Required(), mcp.Description("Address or place name to look up")),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of matches"),
					mcp.DefaultNumber(geocoding.DefaultLimit),
					mcp.Min(1), mcp.Max(geocoding.MaxLimit),
				),
			},
			func(ctx context.Context, args Args) (any, error) {
				results, err := geoSvc.ForwardGeocode(ctx, args.String("address"), args.Int("limit", geocoding.DefaultLimit))
				if err != nil {
					return nil, err
				}
				return map[string]any{"query": args.String("address"), "results": results}, nil
			}),

		newTool("reverse_geocode",
			"Find the address at a pair of coordinates",
			[]mcp.ToolOption{
				mcp.WithNumber("latitude", mcp.Required(), mcp.Description("Latitude in decimal degrees"), mcp.Min(-90), mcp.Max(90)),
				mcp.WithNumber("longitude", mcp.Required(), mcp.Description("Longitude in decimal degrees"), mcp.Min(-180), mcp.Max(180)),
			},
			func(ctx context.Context, args Args) (any, error) {
				lat, _ := args.Float("latitude")
				lon, _ := args.Float("longitude")
				return geoSvc.ReverseGeocode(ctx, lat, lon)
			}),

		newTool("calculate_route",
			"Calculate a route between two places with distance, duration and turn-by-turn steps",
			routeParams,
			func(ctx context.Context, args Args) (any, error) {
				origin, destination, mode, err := routeArgs(args)
				if err != nil {
					return nil, err
				}
				route, err := routeSvc.CalculateRoute(ctx, origin, destination, mode)
				if err != nil {
					return nil, err
				}
				return summarizeRoute(route, true), nil
			}),

		newTool("get_route_alternatives",
			"Compare up to three alternative routes between two places",
			append(routeParams,
				mcp.WithNumber("alternatives",
					mcp.Description("Number of routes to return"),
					mcp.DefaultNumber(routing.DefaultAlternatives),
					mcp.Min(1), mcp.Max(routing.MaxAlternatives),
				),
			),
			func(ctx context.Context, args Args) (any, error) {
				origin, destination, mode, err := routeArgs(args)
				if err != nil {
					return nil, err
				}
				routes, err := routeSvc.RouteAlternatives(ctx, origin, destination, mode, args.Int("alternatives", routing.DefaultAlternatives))
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, len(routes))
				for i := range routes {
					out[i] = summarizeRoute(&routes[i], false)
				}
				return map[string]any{"routes": out}, nil
			}),

		newTool("get_distance_matrix",
			"Get travel distances and durations between several origins and destinations",
			[]mcp.ToolOption{
				mcp.WithString("origins", mcp.Required(),
					mcp.Description("Origins separated by \";\", each a place name or \"lat,lon\""),
				),
				mcp.WithString("destinations", mcp.Required(),
					mcp.Description("Destinations separated by \";\", each a place name or \"lat,lon\""),
				),
				modeParam(),
			},
			func(ctx context.Context, args Args) (any, error) {
				mode, err := routing.ParseMode(args.String("mode"))
				if err != nil {
					return nil, err
				}
				origins, err := parseLocations(args.String("origins"))
				if err != nil {
					return nil, err
				}
				destinations, err := parseLocations(args.String("destinations"))
				if err != nil {
					return nil, err
				}
				return routeSvc.DistanceMatrix(ctx, origins, destinations, mode)
			}),

		newTool("find_nearby_places",
			"Find points of interest of a category near a location, nearest first",
			append(locationParams(),
				mcp.WithString("category",
					mcp.Description("Place category, e.g. "+categoryList()+". Omit for any named place"),
				),
				mcp.WithNumber("radius_meters",
					mcp.Description("Search radius in meters"),
					mcp.DefaultNumber(poi.DefaultRadius),
					mcp.Min(1), mcp.Max(poi.MaxRadius),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of places"),
					mcp.DefaultNumber(poi.DefaultLimit),
					mcp.Min(1), mcp.Max(poi.MaxLimit),
				),
			),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				radius, _ := args.Float("radius_meters")
				places, err := poiSvc.SearchNearby(ctx, loc, radius,
					poi.NormalizeCategory(args.String("category")), args.Int("limit", poi.DefaultLimit))
				if err != nil {
					return nil, err
				}
				return map[string]any{"location": loc.String(), "count": len(places), "places": places}, nil
			}),

		newTool("find_places_by_category",
			"Find places of a category near a location filtered by minimum rating and maximum price level",
			append(locationParams(),
				mcp.WithString("category", mcp.Required(), mcp.Description("Place category, e.g. "+categoryList())),
				mcp.WithNumber("radius_meters",
					mcp.Description("Search radius in meters"),
					mcp.DefaultNumber(poi.DefaultCategoryRadius),
					mcp.Min(1), mcp.Max(poi.MaxRadius),
				),
				mcp.WithNumber("min_rating", mcp.Description("Minimum rating"), mcp.Min(poi.MinRating), mcp.Max(poi.MaxRating)),
				mcp.WithNumber("max_price_level", mcp.Description("Maximum price level, 1 (cheap) to 4 (expensive)"),
					mcp.Min(poi.MinPriceLevel), mcp.Max(poi.MaxPriceLevel)),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of places"),
					mcp.DefaultNumber(poi.DefaultLimit),
					mcp.Min(1), mcp.Max(poi.MaxLimit),
				),
			),
			func(ctx context.Context, args Args) (any, error) {
				loc, err := args.Location("location", "latitude", "longitude")
				if err != nil {
					return nil, err
				}
				f := poi.Filter{
					Category:  poi.NormalizeCategory(args.String("category")),
					Center:    loc,
					MinRating: args.FloatPtr("min_rating"),
					Limit:     args.Int("limit", poi.DefaultLimit),
				}
				f.RadiusMeters, _ = args.Float("radius_meters")
				if args.Has("max_price_level") {
					level := args.Int("max_price_level", poi.MaxPriceLevel)
					f.MaxPriceLevel = &level
				}
				places, err := poiSvc.SearchByCategory(ctx, f)
				if err != nil {
					return nil, err
				}
				return map[string]any{"location": loc.String(), "count": len(places), "places": places}, nil
			}),

		newTool("search_places",
			"Search places by free text, optionally near a point",
			[]mcp.ToolOption{
				mcp.WithString("query", mcp.Required(), mcp.Description("What to search for, e.g. \"Louvre\" or \"pizza\"")),
				mcp.WithNumber("latitude", mcp.Description("Latitude to search around"), mcp.Min(-90), mcp.Max(90)),
				mcp.WithNumber("longitude", mcp.Description("Longitude to search around"), mcp.Min(-180), mcp.Max(180)),
				mcp.WithNumber("radius_meters",
					mcp.Description("Search radius in meters when latitude and longitude are given"),
					mcp.Min(1), mcp.Max(poi.MaxRadius),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of places"),
					mcp.DefaultNumber(poi.DefaultLimit),
					mcp.Min(1), mcp.Max(poi.MaxLimit),
				),
			},
			func(ctx context.Context, args Args) (any, error) {
				var near *geo.Coordinate
				lat, hasLat := args.Float("latitude")
				lon, hasLon := args.Float("longitude")
				switch {
				case hasLat && hasLon:
					near = &geo.Coordinate{Lat: lat, Lon: lon}
				case hasLat || hasLon:
					return nil, provider.InputError("latitude and longitude must be given together")
				}
				radius, _ := args.Float("radius_meters")
				places, err := poiSvc.SearchText(ctx, args.String("query"), near, radius, args.Int("limit", poi.DefaultLimit))
				if err != nil {
					return nil, err
				}
				return map[string]any{"query": args.String("query"), "count": len(places), "places": places}, nil
			}),

		newTool("get_place_info",
			"Get details (address, opening hours, contact) about a named place",
			[]mcp.ToolOption{
				mcp.WithString("place_name", mcp.Required(), mcp.Description("Name of the place, e.g. \"Eiffel Tower\"")),
			},
			func(ctx context.Context, args Args) (any, error) {
				return poiSvc.PlaceDetails(ctx, args.String("place_name"))
			}),
	}
}

func routeArgs(args Args) (origin, destination geo.Location, mode routing.Mode, err error) {
	if origin, err = args.Location("origin", "origin_lat", "origin_lon"); err != nil {
		return
	}
	if destination, err = args.Location("destination", "dest_lat", "dest_lon"); err != nil {
		return
	}
	mode, err = routing.ParseMode(args.String("mode"))
	return
}

// summarizeRoute keeps what a reader needs from a route. The polyline is dropped.
func summarizeRoute(r *routing.Route, withSteps bool) map[string]any {
	out := map[string]any{
		"mode":             r.Mode,
		"distance_km":      r.DistanceKm(),
		"duration_minutes": r.DurationMinutes(),
		"origin":           r.Origin,
		"destination":      r.Destination,
	}
	if r.Summary != "" {
		out["summary"] = r.Summary
	}
	if len(r.Warnings) > 0 {
		out["warnings"] = r.Warnings
	}
	if withSteps {
		steps := make([]map[string]any, len(r.Steps))
		for i, s := range r.Steps {
			steps[i] = map[string]any{
				"instruction":     s.Instruction,
				"distance_meters": s.DistanceMeters,
			}
		}
		out["steps"] = steps
	} else {
		out["step_count"] = len(r.Steps)
	}
	return out
}

// parseLocations splits a ";" separated list whose items are place names or
// "lat,lon" pairs.
func parseLocations(s string) ([]geo.Location, error) {
	var locs []geo.Location
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if c, ok := parseLatLon(item); ok {
			locs = append(locs, geo.ByCoordinates(c.Lat, c.Lon))
			continue
		}
		locs = append(locs, geo.ByName(item))
	}
	if len(locs) == 0 {
		return nil, provider.InputError("no locations in %q", s)
	}
	return locs, nil
}

func parseLatLon(s string) (geo.Coordinate, bool) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinate{}, false
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err1 != nil || err2 != nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: la, Lon: lo}, true
}

func categoryList() string {
	names := make([]string, 0, 6)
	for _, c := range poi.Categories[:6] {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
