package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/dmora/botly/config"
)

// commonFlags are accepted by every command that reads configuration.
type commonFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func (c *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", config.DefaultPath, "config file (.yaml, .yml, .json, .jsonc)")
	fs.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before BOTLY_* variables")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
}

// load reads configuration. A missing default config file is not an error;
// a missing file named with --config is.
func (c *commonFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	path := c.configPath
	if !fs.Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path, c.envFile)
	if err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newFlagSet returns a flag set that prints its own help to w.
func newFlagSet(name, synopsis string, w io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("botly "+name, pflag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "usage: botly %s %s\n\nflags:\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args; a help request is reported as handled.
func parse(fs *pflag.FlagSet, args []string) (handled bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return false, nil
}

// newLogger builds the command logger. Output always goes to w, never to
// stdout.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
