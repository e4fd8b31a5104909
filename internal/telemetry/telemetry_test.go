package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/agent"
	"github.com/geoagent/geoagent/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	p, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "geoagent-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
	})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Meter)
	assert.Nil(t, p.TracerProvider)
	assert.Nil(t, p.MeterProvider)
	assert.NoError(t, p.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	p := &telemetry.Provider{}
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Disabled_MeterServesAgentMetrics(t *testing.T) {
	p, err := telemetry.Init(context.Background(), telemetry.Config{ServiceName: "geoagent-test"})
	require.NoError(t, err)

	m, err := agent.NewMetrics(p.Meter)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
