package tools_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/tools"
)

// echoTool returns its coerced arguments.
func echoTool() tools.Tool {
	return tools.Tool{
		Definition: mcp.NewTool("echo",
			mcp.WithDescription("Echo the arguments"),
			mcp.WithString("city", mcp.Required(), mcp.Description("City name")),
			mcp.WithNumber("lat", mcp.Description("Latitude"), mcp.Min(-90), mcp.Max(90)),
			mcp.WithNumber("limit", mcp.DefaultNumber(10)),
			mcp.WithString("mode", mcp.Enum("driving", "walking"), mcp.DefaultString("driving")),
			mcp.WithBoolean("verbose"),
		),
		Invoke: func(_ context.Context, args tools.Args) (any, error) {
			return args, nil
		},
	}
}

func failingTool(err error) tools.Tool {
	return tools.Tool{
		Definition: mcp.NewTool("fail", mcp.WithDescription("Always fails")),
		Invoke: func(context.Context, tools.Args) (any, error) {
			return nil, err
		},
	}
}

func TestNewRegistry(t *testing.T) {
	r, err := tools.NewRegistry(echoTool(), failingTool(errors.New("boom")))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"echo", "fail"}, r.Names())

	tool, ok := r.Lookup("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", tool.Name())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestNewRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		tools []tools.Tool
	}{
		{"duplicate", []tools.Tool{echoTool(), echoTool()}},
		{"no name", []tools.Tool{{Definition: mcp.Tool{}, Invoke: echoTool().Invoke}}},
		{"no handler", []tools.Tool{{Definition: mcp.NewTool("x")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tools.NewRegistry(tt.tools...)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_Describe(t *testing.T) {
	r, err := tools.NewRegistry(echoTool(), failingTool(nil))
	require.NoError(t, err)

	desc := r.Describe()
	assert.Contains(t, desc, "1. echo: Echo the arguments\n")
	assert.Contains(t, desc, "   - city (string, required): City name\n")
	assert.Contains(t, desc, "   - lat (number): Latitude\n")
	assert.Contains(t, desc, "   - limit (number, default 10)\n")
	assert.Contains(t, desc, "   - mode (string, one of: driving|walking, default driving)\n")
	assert.Contains(t, desc, "2. fail: Always fails\n")

	// required parameters come first
	assert.Less(t, strings.Index(desc, "- city"), strings.Index(desc, "- lat"))
}

func TestRegistry_Call_Coercion(t *testing.T) {
	r, err := tools.NewRegistry(echoTool())
	require.NoError(t, err)

	out, err := r.Call(context.Background(), "echo", map[string]any{
		"city":    "  Paris ",
		"lat":     "48.8",
		"mode":    "WALKING",
		"verbose": "true",
		"extra":   "dropped",
	})
	require.NoError(t, err)

	args := out.(tools.Args)
	assert.Equal(t, "Paris", args["city"])
	assert.Equal(t, 48.8, args["lat"])
	assert.Equal(t, "walking", args["mode"])
	assert.Equal(t, true, args["verbose"])
	assert.Equal(t, float64(10), args["limit"])
	assert.Equal(t, 10, args.Int("limit", 0))
	assert.False(t, args.Has("extra"))
}

func TestRegistry_Call_Defaults(t *testing.T) {
	r, err := tools.NewRegistry(echoTool())
	require.NoError(t, err)

	out, err := r.Call(context.Background(), "echo", map[string]any{"city": "Oslo", "lat": nil})
	require.NoError(t, err)

	args := out.(tools.Args)
	assert.Equal(t, "driving", args.String("mode"))
	assert.False(t, args.Has("lat"))
	assert.Nil(t, args.FloatPtr("lat"))
	assert.False(t, args.Has("verbose"))
}

func TestRegistry_Call_InvalidArguments(t *testing.T) {
	r, err := tools.NewRegistry(echoTool())
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{"lat": 1}},
		{"blank required", map[string]any{"city": "   "}},
		{"not a number", map[string]any{"city": "Paris", "lat": "north"}},
		{"bool for number", map[string]any{"city": "Paris", "lat": true}},
		{"out of range", map[string]any{"city": "Paris", "lat": 95}},
		{"NaN string", map[string]any{"city": "Paris", "lat": "NaN"}},
		{"infinite string", map[string]any{"city": "Paris", "limit": "+Inf"}},
		{"NaN float", map[string]any{"city": "Paris", "lat": math.NaN()}},
		{"enum mismatch", map[string]any{"city": "Paris", "mode": "flying"}},
		{"object for string", map[string]any{"city": map[string]any{"name": "Paris"}}},
		{"bad bool", map[string]any{"city": "Paris", "verbose": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call(context.Background(), "echo", tt.args)
			assert.ErrorIs(t, err, provider.ErrInput)
		})
	}
}

func TestCoerce_RejectsNonFiniteNumbers(t *testing.T) {
	def := mcp.NewTool("nearby", mcp.WithNumber("radius_meters", mcp.Min(1), mcp.Max(10000)))

	for _, v := range []any{"NaN", "nan", "Inf", "-Inf", math.Inf(1)} {
		args, err := tools.Coerce(def, map[string]any{"radius_meters": v})
		assert.ErrorIs(t, err, provider.ErrInput, "value %v", v)
		assert.Nil(t, args)
	}

	args, err := tools.Coerce(def, map[string]any{"radius_meters": "500"})
	require.NoError(t, err)
	assert.Equal(t, 500.0, args["radius_meters"])
}

func TestRegistry_Call_UnknownTool(t *testing.T) {
	r, err := tools.NewRegistry(echoTool())
	require.NoError(t, err)

	_, err = r.Call(context.Background(), "teleport", nil)
	require.ErrorIs(t, err, provider.ErrInput)
	assert.Contains(t, err.Error(), "echo")
}

func TestRegistry_Call_HandlerError(t *testing.T) {
	wrapped := provider.NotFoundError("weather", "Atlantis")
	r, err := tools.NewRegistry(failingTool(wrapped))
	require.NoError(t, err)

	_, err = r.Call(context.Background(), "fail", nil)
	assert.ErrorIs(t, err, provider.ErrLocationNotFound)

	payload := tools.ErrorPayload(err)
	assert.Equal(t, err.Error(), payload["error"])
	assert.Equal(t, provider.Kind(err), payload["kind"])
}
