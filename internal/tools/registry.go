// Package tools exposes the wrapper services as named tools with parameter schemas,
// for prompt-based selection by the agent and for MCP clients.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/geoagent/geoagent/internal/provider"
)

// Handler runs a tool with validated arguments.
type Handler func(ctx context.Context, args Args) (any, error)

// Tool pairs an MCP tool definition with its handler.
type Tool struct {
	Definition mcp.Tool
	Invoke     Handler
}

// Name returns the tool name.
func (t Tool) Name() string {
	return t.Definition.Name
}

// Registry is an immutable, ordered set of tools.
type Registry struct {
	tools  []Tool
	byName map[string]int
}

// NewRegistry builds a registry. Tool names must be unique and non-empty.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:  make([]Tool, 0, len(tools)),
		byName: make(map[string]int, len(tools)),
	}
	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool without a name")
		}
		if t.Invoke == nil {
			return nil, fmt.Errorf("tool %q has no handler", name)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		r.byName[name] = len(r.tools)
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Lookup returns the tool called name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Describe renders every tool and its parameters for a system prompt.
func (r *Registry) Describe() string {
	var b strings.Builder
	for i, t := range r.tools {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, t.Name(), t.Definition.Description)
		for _, p := range parameters(t.Definition) {
			fmt.Fprintf(&b, "   - %s (%s", p.name, p.typ)
			if p.required {
				b.WriteString(", required")
			}
			if len(p.enum) > 0 {
				fmt.Fprintf(&b, ", one of: %s", strings.Join(p.enum, "|"))
			}
			if p.def != nil {
				fmt.Fprintf(&b, ", default %v", p.def)
			}
			b.WriteString(")")
			if p.description != "" {
				b.WriteString(": ")
				b.WriteString(p.description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Call validates raw against the tool schema and runs the tool. Unknown tools and
// invalid arguments fail with an input error.
func (r *Registry) Call(ctx context.Context, name string, raw map[string]any) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, provider.InputError("unknown tool %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	args, err := Coerce(t.Definition, raw)
	if err != nil {
		return nil, err
	}
	return t.Invoke(ctx, args)
}

// RegisterMCP adds every tool to s. Tool failures are reported as MCP error results
// carrying the same payload the agent uses.
func (r *Registry) RegisterMCP(s *server.MCPServer) {
	for _, t := range r.tools {
		name := t.Name()
		s.AddTool(t.Definition, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := r.Call(ctx, name, req.Params.Arguments)
			if err != nil {
				payload, _ := json.Marshal(ErrorPayload(err))
				return mcp.NewToolResultError(string(payload)), nil
			}
			out, err := json.Marshal(result)
			if err != nil {
				return nil, fmt.Errorf("encoding %s result: %w", name, err)
			}
			return mcp.NewToolResultText(string(out)), nil
		})
	}
}

// ErrorPayload is the structured form of a tool failure: {"error": ..., "kind": ...}.
func ErrorPayload(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
		"kind":  provider.Kind(err),
	}
}

type parameter struct {
	name        string
	typ         string
	description string
	required    bool
	enum        []string
	def         any
	min, max    *float64
}

// parameters lists the schema properties, required ones first in declaration order,
// then optional ones by name.
func parameters(def mcp.Tool) []parameter {
	required := make(map[string]bool, len(def.InputSchema.Required))
	for _, n := range def.InputSchema.Required {
		required[n] = true
	}

	optional := make([]string, 0, len(def.InputSchema.Properties))
	for n := range def.InputSchema.Properties {
		if !required[n] {
			optional = append(optional, n)
		}
	}
	sort.Strings(optional)

	names := append(append([]string{}, def.InputSchema.Required...), optional...)
	params := make([]parameter, 0, len(names))
	for _, n := range names {
		schema, _ := def.InputSchema.Properties[n].(map[string]any)
		p := parameter{
			name:     n,
			typ:      cast.ToString(schema["type"]),
			required: required[n],
			def:      schema["default"],
		}
		p.description = cast.ToString(schema["description"])
		p.enum = cast.ToStringSlice(schema["enum"])
		if v, err := cast.ToFloat64E(schema["minimum"]); err == nil && schema["minimum"] != nil {
			p.min = &v
		}
		if v, err := cast.ToFloat64E(schema["maximum"]); err == nil && schema["maximum"] != nil {
			p.max = &v
		}
		params = append(params, p)
	}
	return params
}
