package botly

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSentinel is the readiness line an agent prints after launch.
const DefaultSentinel = "ready"

// instrumentationName names the tracer used for bridge spans.
const instrumentationName = "github.com/dmora/botly"

// Options holds resolved configuration for New.
type Options struct {
	// ID identifies the bridge in logs and spans. Empty means a random UUID.
	ID string

	// Sentinel is the expected readiness line. Empty means DefaultSentinel.
	Sentinel string

	// Logger receives bridge events. Nil discards them.
	Logger *slog.Logger

	// TracerProvider supplies the tracer for per-turn spans.
	// Nil uses the global provider (a no-op unless one is installed).
	TracerProvider trace.TracerProvider
}

// Option configures a Bridge at construction time.
type Option func(*Options)

// ResolveOptions applies functional options over the defaults.
func ResolveOptions(opts ...Option) Options {
	o := Options{Sentinel: DefaultSentinel}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Sentinel == "" {
		o.Sentinel = DefaultSentinel
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	return o
}

// WithID sets the bridge identifier used in logs and spans.
func WithID(id string) Option {
	return func(o *Options) {
		o.ID = id
	}
}

// WithSentinel overrides the readiness line. Empty values are ignored.
func WithSentinel(sentinel string) Option {
	return func(o *Options) {
		if sentinel != "" {
			o.Sentinel = sentinel
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = tp
	}
}
