package agent

import (
	"fmt"
	"strings"

	"github.com/geoagent/geoagent/internal/llm"
	"github.com/geoagent/geoagent/internal/tools"
)

// Example is a sample query and the selection it should produce, shown to the
// model in the system prompt.
type Example struct {
	Query     string
	Selection string
}

// WeatherExamples guide selection for the weather tool set.
var WeatherExamples = []Example{
	{"What's the weather in London?", `{"tool": "get_current_weather", "parameters": {"location": "London"}}`},
	{"Air quality in Beijing", `{"tool": "get_air_quality", "parameters": {"location": "Beijing"}}`},
	{"5-day forecast for Tokyo", `{"tool": "get_daily_summary", "parameters": {"location": "Tokyo"}}`},
}

// MapExamples guide selection for the map tool set.
var MapExamples = []Example{
	{"What are the coordinates of the Empire State Building?", `{"tool": "geocode_address", "parameters": {"address": "Empire State Building"}}`},
	{"Walking route from the Louvre to the Eiffel Tower", `{"tool": "calculate_route", "parameters": {"origin": "Louvre, Paris", "destination": "Eiffel Tower, Paris", "mode": "walking"}}`},
	{"Find cafes near Times Square", `{"tool": "find_nearby_places", "parameters": {"location": "Times Square, New York", "category": "cafe"}}`},
}

const selectionContract = `Respond with a JSON object naming exactly one tool and its parameters:
{"tool": "tool_name", "parameters": {"name": value, ...}}
Use only the tools and parameter names listed above. Numbers must be JSON numbers.
IMPORTANT: Only respond with the JSON object, nothing else.`

const formatInstructions = "You are a helpful %s assistant. Turn the tool data below into a natural, friendly answer for the user. " +
	"Be concise but informative. Only use the data provided: do not make up, guess or infer anything. " +
	"If the data reports an error or is missing, say so plainly and suggest how the user could rephrase."

func selectionMessages(domain string, registry *tools.Registry, examples []Example, query string) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful %s assistant with access to these tools:\n\n", domain)
	b.WriteString(registry.Describe())
	b.WriteString("\n")
	b.WriteString(selectionContract)
	if len(examples) > 0 {
		b.WriteString("\n\nExamples:\n")
		for _, e := range examples {
			fmt.Fprintf(&b, "- User: %q\n  Response: %s\n", e.Query, e.Selection)
		}
	}
	return []llm.Message{llm.System(b.String()), llm.User(query)}
}

func formatMessages(domain, query, tool, data string) []llm.Message {
	user := fmt.Sprintf("User asked: %s\n\nTool used: %s\nData received: %s\n\nAnswer using only this data:", query, tool, data)
	return []llm.Message{llm.System(fmt.Sprintf(formatInstructions, domain)), llm.User(user)}
}
