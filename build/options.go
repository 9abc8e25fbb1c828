package build

import (
	"io"
	"log/slog"
	"os"
)

// Options holds resolved Orchestrator configuration.
type Options struct {
	// ProjectDir is the agent crate root. Defaults to ".".
	ProjectDir string

	// Binary is the executable name under target/release.
	Binary string

	// Cargo is the cargo executable.
	Cargo string

	// Env is the base environment. Nil inherits the caller's.
	Env []string

	// Runner executes the compiler. Defaults to an ExecRunner writing both
	// streams to os.Stderr, keeping stdout free for moves.
	Runner Runner

	Logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Options)

// WithProjectDir sets the agent crate root.
func WithProjectDir(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.ProjectDir = dir
		}
	}
}

// WithBinary sets the executable name.
func WithBinary(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Binary = name
		}
	}
}

// WithCargo sets the cargo executable.
func WithCargo(cargo string) Option {
	return func(o *Options) {
		if cargo != "" {
			o.Cargo = cargo
		}
	}
}

// WithEnv sets the base environment.
func WithEnv(env []string) Option {
	return func(o *Options) { o.Env = env }
}

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(o *Options) {
		if r != nil {
			o.Runner = r
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func resolveOptions(opts ...Option) Options {
	o := Options{
		ProjectDir: ".",
		Binary:     DefaultBinary,
		Cargo:      DefaultCargo,
		Runner:     ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
