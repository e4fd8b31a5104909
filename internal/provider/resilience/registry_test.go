package resilience_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoagent/geoagent/internal/provider/resilience"
)

func registeredClient(registry *resilience.Registry, name string) *resilience.Client {
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_RegisterOnNewClient(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "nominatim")

	assert.Equal(t, 1, registry.Len())

	h, ok := registry.Health("nominatim")
	require.True(t, ok)
	assert.Equal(t, gobreaker.StateClosed, h.CircuitState)
	assert.Equal(t, resilience.StatusHealthy, h.Status())
	assert.Nil(t, h.LastSuccessAt)
}

func TestRegistry_Unregister(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "overpass")

	registry.Unregister("overpass")

	assert.Equal(t, 0, registry.Len())
	_, ok := registry.Health("overpass")
	assert.False(t, ok)
}

func TestRegistry_RecordsOutcomesFromClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := registeredClient(registry, "owm")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	h, ok := registry.Health("owm")
	require.True(t, ok)
	assert.NotNil(t, h.LastSuccessAt)
	assert.Nil(t, h.LastFailureAt)
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "ors")

	registry.RecordFailure("ors", errors.New("connection refused"))

	h, _ := registry.Health("ors")
	assert.NotNil(t, h.LastFailureAt)
	assert.Equal(t, "connection refused", h.LastError)
}

func TestRegistry_UnknownNameIgnored(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.NotPanics(t, func() {
		registry.RecordSuccess("missing")
		registry.RecordFailure("missing", errors.New("x"))
	})
}

func TestRegistry_SnapshotSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	registeredClient(registry, "overpass")
	registeredClient(registry, "llm")
	registeredClient(registry, "nominatim")

	snap := registry.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "llm", snap[0].Name)
	assert.Equal(t, "nominatim", snap[1].Name)
	assert.Equal(t, "overpass", snap[2].Name)
}

func TestHealth_Status(t *testing.T) {
	assert.Equal(t, resilience.StatusHealthy, resilience.Health{CircuitState: gobreaker.StateClosed}.Status())
	assert.Equal(t, resilience.StatusDegraded, resilience.Health{CircuitState: gobreaker.StateHalfOpen}.Status())
	assert.Equal(t, resilience.StatusUnhealthy, resilience.Health{CircuitState: gobreaker.StateOpen}.Status())
}
