package openrouteservice

// orsRequest represents the ORS directions API request body.
type orsRequest struct {
	Coordinates       [][]float64            `json:"coordinates"`
	AlternativeRoutes *alternativeRoutesOpts `json:"alternative_routes,omitempty"`
	Instructions      bool                   `json:"instructions"`
	Geometry          bool                   `json:"geometry"`
	Units             string                 `json:"units"`
	Language          string                 `json:"language"`
}

// alternativeRoutesOpts configures alternative route generation.
type alternativeRoutesOpts struct {
	TargetCount  int     `json:"target_count"`
	WeightFactor float64 `json:"weight_factor,omitempty"`
	ShareFactor  float64 `json:"share_factor,omitempty"`
}

// orsResponse represents the ORS directions API response.
type orsResponse struct {
	Routes []orsRoute `json:"routes"`
	BBox   []float64  `json:"bbox,omitempty"`
}

// orsRoute represents a single route in the ORS response.
type orsRoute struct {
	Summary   routeSummary   `json:"summary"`
	Segments  []routeSegment `json:"segments,omitempty"`
	BBox      []float64      `json:"bbox,omitempty"`
	Geometry  string         `json:"geometry"`
	WayPoints []int          `json:"way_points,omitempty"`
	Warnings  []routeWarning `json:"warnings,omitempty"`
}

// routeSummary contains summary information for a route.
type routeSummary struct {
	Distance float64 `json:"distance"` // Distance in meters
	Duration float64 `json:"duration"` // Duration in seconds
}

// routeSegment represents a segment of the route.
type routeSegment struct {
	Distance float64        `json:"distance"`
	Duration float64        `json:"duration"`
	Steps    []routeStep    `json:"steps,omitempty"`
	Warnings []routeWarning `json:"warnings,omitempty"`
}

// routeStep represents a single step (instruction) in a segment.
type routeStep struct {
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        int     `json:"type"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
	WayPoints   []int   `json:"way_points,omitempty"`
}

type routeWarning struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// orsErrorResponse represents an error response from ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Info string `json:"info,omitempty"`
}

// ORS error codes for error mapping.
const (
	orsErrorCodeNotFound      = 2009 // Route not found
	orsErrorCodePointNotFound = 2010 // Point not routable
)

// maneuverNames indexes ORS instruction types.
var maneuverNames = []string{
	"turn-left",
	"turn-right",
	"turn-sharp-left",
	"turn-sharp-right",
	"turn-slight-left",
	"turn-slight-right",
	"straight",
	"roundabout-enter",
	"roundabout-exit",
	"u-turn",
	"arrive",
	"depart",
	"keep-left",
	"keep-right",
}
