// Package main serves the tool registry over MCP on stdin/stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/geoagent/geoagent/internal/app"
	"github.com/geoagent/geoagent/internal/config"
	"github.com/geoagent/geoagent/internal/tools"
)

// Version is set at compile time via ldflags.
var Version = "dev"

const serviceName = "geoagent-toolserver"

func main() {
	toolSet := flag.String("tools", app.ToolSetAll, "tool set: weather, map or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// stdout carries the protocol, so logs go to stderr
	log := app.NewLogger(cfg, serviceName, Version).Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := cfg.Validate(app.Components(*toolSet)...); err != nil {
		log.Warn().Err(err).Msg("some tools will fail until configuration is complete")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	services := app.New(cfg, log)

	err = serve(ctx, services, *toolSet, log, os.Stdin, os.Stdout)
	stop()
	if cerr := services.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("failed to close sessions")
	}
	if err != nil {
		log.Error().Err(err).Msg("tool server stopped")
		os.Exit(1)
	}
}

// serve exposes the named tool set of services over MCP until in is exhausted or
// ctx is done. The caller owns services and closes them.
func serve(ctx context.Context, services *app.App, toolSet string, log zerolog.Logger, in io.Reader, out io.Writer) error {
	set, _, _, err := services.ToolSet(toolSet)
	if err != nil {
		return err
	}
	registry, err := tools.NewRegistry(set...)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	s := server.NewMCPServer(serviceName, Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	registry.RegisterMCP(s)

	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(stdlog.New(log, "", 0))

	log.Info().Int("tools", registry.Len()).Strs("names", registry.Names()).Msg("serving MCP over stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
