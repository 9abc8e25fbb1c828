package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/dmora/botly/config"
)

func restoreGlobalProvider(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	restoreGlobalProvider(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider(), "no provider is registered")
}

func TestSetup_RegistersProvider(t *testing.T) {
	restoreGlobalProvider(t)

	// Non-routable address: nothing is exported because no span is ended.
	cfg := config.TelemetryConfig{Endpoint: "http://192.0.2.1:4318"}
	shutdown, err := Setup(context.Background(), cfg, "test")
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "global provider should be the SDK provider")
	require.NoError(t, shutdown(context.Background()))
}
