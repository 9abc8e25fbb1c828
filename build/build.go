// Package build compiles the agent executable with a fixed release profile
// tuned for small, fast binaries.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrBuildFailed is returned when the compiler fails or produces no output.
var ErrBuildFailed = errors.New("build: agent build failed")

// Release directives. The set is fixed.
var (
	cargoArgs = []string{
		"+nightly", "build", "--release",
		"-Z", "build-std=std,panic_abort",
		"-Z", "build-std-features=optimize_for_size",
		"-Z", "build-std-features=panic_immediate_abort",
	}
	rustFlags = []string{
		"-C", "target-cpu=native",
		"-Zlocation-detail=none",
		"-Zfmt-debug=none",
	}
)

// Default values.
const (
	DefaultBinary = "checkmate_engine"
	DefaultCargo  = "cargo"
)

// Command describes one compiler invocation.
type Command struct {
	Dir  string
	Env  []string
	Name string
	Args []string
}

// String renders c the way a shell would show it.
func (c Command) String() string {
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes a Command. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as subprocesses, streaming their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// Orchestrator builds the agent.
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	return &Orchestrator{opts: resolveOptions(opts...)}
}

// Command returns the invocation Build performs.
func (o *Orchestrator) Command() Command {
	base := o.opts.Env
	if base == nil {
		base = os.Environ()
	}
	env := make([]string, 0, len(base)+1)
	env = append(env, base...)
	env = append(env, "RUSTFLAGS="+strings.Join(rustFlags, " "))

	return Command{
		Dir:  o.opts.ProjectDir,
		Env:  env,
		Name: o.opts.Cargo,
		Args: append([]string(nil), cargoArgs...),
	}
}

// Output returns the absolute path of the executable Build produces.
func (o *Orchestrator) Output() (string, error) {
	dir, err := filepath.Abs(o.opts.ProjectDir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrBuildFailed, o.opts.ProjectDir, err)
	}
	return filepath.Join(dir, "target", "release", o.opts.Binary), nil
}

// Build compiles the agent and returns the absolute path of the executable.
func (o *Orchestrator) Build(ctx context.Context) (string, error) {
	out, err := o.Output()
	if err != nil {
		return "", err
	}
	cmd := o.Command()
	logger := o.opts.Logger.With("project", o.opts.ProjectDir, "binary", o.opts.Binary)

	logger.Info("building agent", "command", cmd.String())
	start := time.Now()
	if err := o.opts.Runner.Run(ctx, cmd); err != nil {
		logger.Error("agent build failed", "error", err)
		return "", fmt.Errorf("%w: %s: %w", ErrBuildFailed, cmd.Name, err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return "", fmt.Errorf("%w: no output: %w", ErrBuildFailed, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: output %s is not a regular file", ErrBuildFailed, out)
	}

	logger.Info("agent built", "path", out, "size", info.Size(), "elapsed", time.Since(start).Round(time.Millisecond))
	return out, nil
}
