package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmora/botly/build"
	"github.com/dmora/botly/config"
)

func runBuild(ctx context.Context, e env, args []string) error {
	var common commonFlags
	var projectDir string
	fs := newFlagSet("build", "[flags]", e.stderr)
	common.add(fs)
	fs.StringVar(&projectDir, "project", "", "agent crate root (default build.project_dir)")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if projectDir != "" {
		cfg.Build.ProjectDir = projectDir
	}
	logger, err := newLogger(cfg.Log, e.stderr)
	if err != nil {
		return err
	}

	path, err := newOrchestrator(cfg.Build, e.stderr, logger).Build(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, path)
	return nil
}

// newOrchestrator builds an Orchestrator whose compiler output goes to
// stderr.
func newOrchestrator(cfg config.BuildConfig, stderr io.Writer, logger *slog.Logger) *build.Orchestrator {
	return build.New(
		build.WithProjectDir(cfg.ProjectDir),
		build.WithBinary(cfg.Binary),
		build.WithCargo(cfg.Cargo),
		build.WithRunner(build.ExecRunner{Stdout: stderr, Stderr: stderr}),
		build.WithLogger(logger),
	)
}
