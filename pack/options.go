package pack

import (
	"io"
	"log/slog"

	"github.com/dmora/botly/config"
)

// Options holds resolved Packager configuration. Relative paths are
// resolved against Root.
type Options struct {
	Root        string
	DistDir     string
	Archive     string
	Compression Compression
	EntryName   string

	// Entry is rendered next to the executable. Defaults to the production
	// entry for config.DefaultDeployPath.
	Entry *config.Entry

	Logger *slog.Logger
}

// Option configures a Packager.
type Option func(*Options)

// WithRoot sets the directory relative paths are resolved against.
func WithRoot(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.Root = dir
		}
	}
}

// WithDistDir sets the bundle directory name.
func WithDistDir(dir string) Option {
	return func(o *Options) {
		if dir != "" {
			o.DistDir = dir
		}
	}
}

// WithArchive sets the tar file name. The compressed archive is this name
// plus the codec extension.
func WithArchive(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Archive = name
		}
	}
}

// WithCompression selects the codec.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		if c != "" {
			o.Compression = c
		}
	}
}

// WithEntry sets the entry document and its file name.
func WithEntry(name string, e *config.Entry) Option {
	return func(o *Options) {
		if name != "" {
			o.EntryName = name
		}
		if e != nil {
			o.Entry = e
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
		Root:        ".",
		DistDir:     "kaggle_submissions",
		Archive:     "submission.tar",
		Compression: CompressionGzip,
		EntryName:   config.DefaultEntryName,
		Entry: &config.Entry{
			Variant:    config.VariantProduction,
			Executable: config.DefaultDeployPath,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
