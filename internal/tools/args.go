package tools

import (
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Args holds validated tool arguments. Numbers are float64, strings are trimmed.
type Args map[string]any

// Has reports whether key was supplied or defaulted.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the string argument key, or "".
func (a Args) String(key string) string {
	return cast.ToString(a[key])
}

// Float returns the numeric argument key.
func (a Args) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	return cast.ToFloat64(v), true
}

// FloatPtr returns the numeric argument key, or nil.
func (a Args) FloatPtr(key string) *float64 {
	v, ok := a.Float(key)
	if !ok {
		return nil
	}
	return &v
}

// Int returns the numeric argument key truncated to an int, or def.
func (a Args) Int(key string, def int) int {
	v, ok := a[key]
	if !ok {
		return def
	}
	return cast.ToInt(v)
}

// Bool returns the boolean argument key, or false.
func (a Args) Bool(key string) bool {
	return cast.ToBool(a[key])
}

// Location reads a name-or-coordinates location from the arguments nameKey or
// latKey+lonKey.
func (a Args) Location(nameKey, latKey, lonKey string) (geo.Location, error) {
	return geo.FromArgs(a.String(nameKey), a.FloatPtr(latKey), a.FloatPtr(lonKey))
}

// Coerce converts raw, loosely typed arguments to the types declared by def:
// "48.8" becomes 48.8 for a number, 3 becomes "3" for a string. Missing required
// arguments, unconvertible values, enum mismatches and out-of-range numbers fail
// with an input error. Unknown keys are dropped; declared defaults fill gaps.
func Coerce(def mcp.Tool, raw map[string]any) (Args, error) {
	args := make(Args, len(raw))

	for _, p := range parameters(def) {
		v, ok := raw[p.name]
		if ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				ok = false
			}
		}
		if !ok || v == nil {
			if p.required {
				return nil, provider.InputError("%s: missing required parameter %q", def.Name, p.name)
			}
			if p.def != nil {
				args[p.name] = p.def
			}
			continue
		}

		converted, err := convert(p, v)
		if err != nil {
			return nil, provider.InputError("%s: parameter %q: %v", def.Name, p.name, err)
		}
		args[p.name] = converted
	}

	return args, nil
}

func convert(p parameter, v any) (any, error) {
	switch p.typ {
	case "number", "integer":
		var f float64
		var err error
		switch x := v.(type) {
		case bool:
			return nil, errBadType(p, v)
		case string:
			f, err = cast.ToFloat64E(strings.TrimSpace(x))
		default:
			f, err = cast.ToFloat64E(v)
		}
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, errBadType(p, v)
		}
		if p.min != nil && f < *p.min {
			return nil, errRange(p, f)
		}
		if p.max != nil && f > *p.max {
			return nil, errRange(p, f)
		}
		return f, nil

	case "boolean":
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, errBadType(p, v)
		}
		return b, nil

	case "string":
		switch v.(type) {
		case map[string]any, []any:
			return nil, errBadType(p, v)
		}
		s := strings.TrimSpace(cast.ToString(v))
		if len(p.enum) > 0 {
			for _, e := range p.enum {
				if strings.EqualFold(e, s) {
					return e, nil
				}
			}
			return nil, provider.InputError("value %q is not one of %s", s, strings.Join(p.enum, ", "))
		}
		return s, nil

	default:
		return v, nil
	}
}

func errBadType(p parameter, v any) error {
	return provider.InputError("expected %s, got %T", p.typ, v)
}

func errRange(p parameter, f float64) error {
	switch {
	case p.min != nil && p.max != nil:
		return provider.InputError("%g outside [%g, %g]", f, *p.min, *p.max)
	case p.min != nil:
		return provider.InputError("%g below minimum %g", f, *p.min)
	default:
		return provider.InputError("%g above maximum %g", f, *p.max)
	}
}
