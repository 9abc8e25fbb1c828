package stdio

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Default engine configuration values.
const (
	defaultMaxLineBytes = 1 << 20 // 1 MB
	defaultGracePeriod  = 5 * time.Second
)

// EngineOptions holds resolved construction-time configuration for an Engine.
// Use NewEngine with EngineOption functions to customize these values.
type EngineOptions struct {
	// MaxLineBytes is the maximum length of one line read from the agent,
	// terminator included.
	MaxLineBytes int

	// GracePeriod is the duration to wait after SIGTERM before sending SIGKILL.
	GracePeriod time.Duration

	// Dir is the working directory of the agent. Empty inherits the caller's.
	Dir string

	// Env is the agent environment. Nil inherits the caller's.
	Env []string

	// Stderr receives the agent's standard error.
	Stderr io.Writer

	// Logger receives lifecycle events.
	Logger *slog.Logger
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*EngineOptions)

// WithMaxLineBytes sets the maximum line length accepted from the agent.
// Values <= 0 are ignored.
func WithMaxLineBytes(n int) EngineOption {
	return func(o *EngineOptions) {
		if n > 0 {
			o.MaxLineBytes = n
		}
	}
}

// WithGracePeriod sets the duration to wait after SIGTERM before sending SIGKILL.
// Values <= 0 are ignored.
func WithGracePeriod(d time.Duration) EngineOption {
	return func(o *EngineOptions) {
		if d > 0 {
			o.GracePeriod = d
		}
	}
}

// WithDir sets the agent's working directory.
func WithDir(dir string) EngineOption {
	return func(o *EngineOptions) {
		o.Dir = dir
	}
}

// WithEnv sets the agent's environment.
func WithEnv(env []string) EngineOption {
	return func(o *EngineOptions) {
		o.Env = env
	}
}

// WithStderr redirects the agent's standard error. Nil discards it.
func WithStderr(w io.Writer) EngineOption {
	return func(o *EngineOptions) {
		if w == nil {
			w = io.Discard
		}
		o.Stderr = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *EngineOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func resolveEngineOptions(opts ...EngineOption) EngineOptions {
	o := EngineOptions{
		MaxLineBytes: defaultMaxLineBytes,
		GracePeriod:  defaultGracePeriod,
		Stderr:       os.Stderr,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
