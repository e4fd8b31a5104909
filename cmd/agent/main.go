// Package main runs the tool-selection agent against example queries, a single
// query or an interactive session.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/agent"
	"github.com/geoagent/geoagent/internal/app"
	"github.com/geoagent/geoagent/internal/config"
	"github.com/geoagent/geoagent/internal/telemetry"
	"github.com/geoagent/geoagent/internal/tools"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "geoagent"

var exampleQueries = map[string][]string{
	app.ToolSetWeather: {
		"What's the current weather in London?",
		"Show me the air quality in Beijing",
		"5-day forecast for Paris",
	},
	app.ToolSetMap: {
		"What are the coordinates of the Empire State Building?",
		"Find restaurants near Times Square",
		"Calculate the route from Empire State Building to Central Park",
		"Tell me about Central Park",
	},
}

func main() {
	query := flag.String("q", "", "answer a single query and exit")
	interactive := flag.Bool("i", false, "start an interactive session")
	toolSet := flag.String("tools", app.ToolSetAll, "tool set: weather, map or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	log := app.NewLogger(cfg, serviceName, Version)
	log.Info().Str("build_time", BuildTime).Str("tools", *toolSet).Msg("starting agent")

	if err := cfg.Validate(append(app.Components(*toolSet), config.Agent)...); err != nil {
		log.Fatal().Err(err).Msg("missing configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log, *toolSet, *query, *interactive)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("agent failed")
		os.Exit(1)
	}
}

// run owns every resource it opens and releases them before returning.
func run(ctx context.Context, cfg config.Config, log zerolog.Logger, toolSet, query string, interactive bool) error {
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	services := app.New(cfg, log)
	defer func() {
		if err := services.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close sessions")
		}
	}()

	set, domain, examples, err := services.ToolSet(toolSet)
	if err != nil {
		return err
	}
	registry, err := tools.NewRegistry(set...)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	metrics, err := agent.NewMetrics(tp.Meter)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	a, err := agent.New(agent.Config{
		Completer: services.LLM,
		Registry:  registry,
		Domain:    domain,
		Examples:  examples,
		Tracer:    tp.Tracer,
		Metrics:   metrics,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("model", services.LLM.Model()).
		Str("llm_base_url", services.LLM.BaseURL()).
		Int("tools", registry.Len()).
		Msg("agent ready")

	switch {
	case query != "":
		reply, err := a.ProcessQuery(ctx, query)
		if err != nil {
			return err
		}
		fmt.Println(reply)

	case interactive:
		if err := a.Interactive(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			return err
		}

	default:
		runExamples(ctx, a, toolSet)
	}
	return nil
}

func runExamples(ctx context.Context, a *agent.Agent, toolSet string) {
	var queries []string
	switch toolSet {
	case app.ToolSetWeather, app.ToolSetMap:
		queries = exampleQueries[toolSet]
	default:
		queries = append(append(queries, exampleQueries[app.ToolSetWeather]...), exampleQueries[app.ToolSetMap]...)
	}

	for i, q := range queries {
		if ctx.Err() != nil {
			return
		}
		fmt.Printf("\nExample %d: %s\n", i+1, q)

		reply, err := a.ProcessQuery(ctx, q)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("Response: %s\n", reply)

		// stay under free-tier model rate limits
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
