package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/geoagent/geoagent/internal/agent"

// Outcomes recorded on query and tool call metrics.
const (
	outcomeOK         = "ok"
	outcomeParseError = "parse_error"
	outcomeToolError  = "tool_error"
	outcomeLLMError   = "llm_error"
)

// Metrics holds the agent's OpenTelemetry instruments.
type Metrics struct {
	queries      metric.Int64Counter
	toolCalls    metric.Int64Counter
	toolDuration metric.Float64Histogram
}

// NewMetrics creates the agent instruments on meter, or the global meter when nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	queries, err := meter.Int64Counter(
		"agent.queries.total",
		metric.WithDescription("Total number of processed agent queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	toolCalls, err := meter.Int64Counter(
		"agent.tool.calls.total",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	toolDuration, err := meter.Float64Histogram(
		"agent.tool.duration",
		metric.WithDescription("Duration of tool invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		queries:      queries,
		toolCalls:    toolCalls,
		toolDuration: toolDuration,
	}, nil
}

func (m *Metrics) recordQuery(ctx context.Context, outcome string) {
	m.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) recordToolCall(ctx context.Context, tool, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, elapsed.Seconds(), attrs)
}
