// Package agent implements prompt-based tool selection. The model names a tool as
// JSON (SELECT), the registry runs it (EXECUTE) and the model phrases the result
// (FORMAT).
package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geoagent/geoagent/internal/llm"
	"github.com/geoagent/geoagent/internal/provider"
	"github.com/geoagent/geoagent/internal/tools"
)

// Sampling temperatures of the two model calls.
const (
	SelectTemperature = 0.3
	FormatTemperature = 0.7
)

// Completer is a chat model. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error)
}

// Config holds configuration for an Agent.
type Config struct {
	Completer Completer
	Registry  *tools.Registry

	// Domain names the assistant in prompts, e.g. "weather". Defaults to "geo".
	Domain string

	// Examples are sample selections included in the system prompt (optional).
	Examples []Example

	// Tracer defaults to the global tracer, Metrics to instruments on the global meter.
	Tracer  trace.Tracer
	Metrics *Metrics

	Logger zerolog.Logger
}

// Agent answers natural-language queries with one tool call each.
type Agent struct {
	completer Completer
	registry  *tools.Registry
	domain    string
	examples  []Example
	tracer    trace.Tracer
	metrics   *Metrics
	logger    zerolog.Logger
}

// New creates an agent.
func New(cfg Config) (*Agent, error) {
	if cfg.Completer == nil {
		return nil, errors.New("agent: completer is required")
	}
	if cfg.Registry == nil || cfg.Registry.Len() == 0 {
		return nil, errors.New("agent: at least one tool is required")
	}

	a := &Agent{
		completer: cfg.Completer,
		registry:  cfg.Registry,
		domain:    cfg.Domain,
		examples:  cfg.Examples,
		tracer:    cfg.Tracer,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
	if a.domain == "" {
		a.domain = "geo"
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(instrumentationName)
	}
	if a.metrics == nil {
		m, err := NewMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("agent: creating metrics: %w", err)
		}
		a.metrics = m
	}
	return a, nil
}

// Result records the steps of one processed query.
type Result struct {
	QueryID   string
	Selection Selection

	// Data is the tool result, or the error payload when ToolErr is set.
	Data    any
	ToolErr error

	Reply string
}

// ProcessQuery answers query and returns the model's reply.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (string, error) {
	res, err := a.Run(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Reply, nil
}

// Run answers query and returns every step. An unparsable selection fails with a
// *ParseError and is not retried. Tool failures do not fail the query: their error
// payload is handed to the model to phrase.
func (a *Agent) Run(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, provider.InputError("query must not be empty")
	}

	if QueryID(ctx) == "" {
		ctx = WithQueryID(ctx, "")
	}
	id := QueryID(ctx)
	logger := a.logger.With().Str("query_id", id).Logger()

	ctx, span := a.tracer.Start(ctx, "agent.query",
		trace.WithAttributes(
			attribute.String("query.id", id),
			attribute.String("agent.domain", a.domain),
		),
	)
	defer span.End()

	logger.Info().Str("query", query).Msg("processing query")

	sel, err := a.selectTool(ctx, logger, query)
	if err != nil {
		outcome := outcomeLLMError
		if errors.Is(err, ErrParse) {
			outcome = outcomeParseError
		}
		a.metrics.recordQuery(ctx, outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}

	data, toolErr := a.execute(ctx, logger, sel)

	reply, err := a.format(ctx, logger, query, sel.Tool, data)
	if err != nil {
		a.metrics.recordQuery(ctx, outcomeLLMError)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcomeLLMError)
		return nil, err
	}

	outcome := outcomeOK
	if toolErr != nil {
		outcome = outcomeToolError
	}
	a.metrics.recordQuery(ctx, outcome)
	span.SetAttributes(attribute.String("agent.tool", sel.Tool), attribute.String("agent.outcome", outcome))

	return &Result{
		QueryID:   id,
		Selection: sel,
		Data:      data,
		ToolErr:   toolErr,
		Reply:     reply,
	}, nil
}

func (a *Agent) selectTool(ctx context.Context, logger zerolog.Logger, query string) (Selection, error) {
	ctx, span := a.tracer.Start(ctx, "agent.select")
	defer span.End()

	text, err := a.completer.Complete(ctx, selectionMessages(a.domain, a.registry, a.examples, query), SelectTemperature)
	if err != nil {
		logger.Error().Err(err).Msg("tool selection failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Selection{}, fmt.Errorf("selecting tool: %w", err)
	}
	logger.Debug().Str("response", text).Msg("model selection")

	sel, err := ParseSelection(text)
	if err != nil {
		logger.Warn().Err(err).Str("response", text).Msg("unparsable tool selection")
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Selection{}, err
	}

	span.SetAttributes(attribute.String("agent.tool", sel.Tool))
	logger.Info().Str("tool", sel.Tool).Interface("parameters", sel.Parameters).Msg("tool selected")
	return sel, nil
}

// execute runs the selected tool. On failure it returns the error payload along
// with the error.
func (a *Agent) execute(ctx context.Context, logger zerolog.Logger, sel Selection) (any, error) {
	ctx, span := a.tracer.Start(ctx, "agent.execute", trace.WithAttributes(attribute.String("agent.tool", sel.Tool)))
	defer span.End()

	metricName := sel.Tool
	if _, ok := a.registry.Lookup(sel.Tool); !ok {
		metricName = "unknown"
	}

	start := time.Now()
	result, err := a.registry.Call(ctx, sel.Tool, sel.Parameters)
	elapsed := time.Since(start)

	if err != nil {
		kind := provider.Kind(err)
		logger.Warn().Err(err).Str("tool", sel.Tool).Str("kind", kind).Dur("duration", elapsed).Msg("tool failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		a.metrics.recordToolCall(ctx, metricName, outcomeToolError, elapsed)
		return tools.ErrorPayload(err), err
	}

	logger.Debug().Str("tool", sel.Tool).Dur("duration", elapsed).Msg("tool succeeded")
	a.metrics.recordToolCall(ctx, metricName, outcomeOK, elapsed)
	return result, nil
}

func (a *Agent) format(ctx context.Context, logger zerolog.Logger, query, tool string, data any) (string, error) {
	ctx, span := a.tracer.Start(ctx, "agent.format")
	defer span.End()

	encoded, err := json.Marshal(data)
	if err != nil {
		payload, _ := json.Marshal(tools.ErrorPayload(provider.ValidationError("encoding %s result: %v", tool, err)))
		encoded = payload
	}

	reply, err := a.completer.Complete(ctx, formatMessages(a.domain, query, tool, string(encoded)), FormatTemperature)
	if err != nil {
		logger.Error().Err(err).Msg("formatting failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", fmt.Errorf("formatting reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// Interactive reads queries line by line from in and writes replies to out until
// in is exhausted, ctx is done or the user types exit, quit or bye.
func (a *Agent) Interactive(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "Ask me about %s. Type 'exit' or 'quit' to end the session.\n", a.domain)

	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "bye":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		reply, err := a.ProcessQuery(ctx, line)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				fmt.Fprintln(out, "Agent: I had trouble understanding the request. Could you rephrase it?")
				continue
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Agent: %s\n", reply)
	}
}
