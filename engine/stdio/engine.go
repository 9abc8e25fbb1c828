//go:build !windows

package stdio

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/dmora/botly"
)

// Engine launches agent executables.
type Engine struct {
	opts EngineOptions
}

// NewEngine creates an Engine.
// Use EngineOption functions to customize line limits, grace period and I/O.
func NewEngine(opts ...EngineOption) *Engine {
	return &Engine{opts: resolveEngineOptions(opts...)}
}

// Options returns the resolved engine configuration.
func (e *Engine) Options() EngineOptions { return e.opts }

// Validate checks that binary resolves to an executable file.
func (e *Engine) Validate(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%w: %s: %w", botly.ErrUnavailable, binary, err)
	}
	return nil
}

// Start spawns binary with args and returns its Process handle.
//
// The agent's lifetime is not bound to ctx; the context parameter is reserved
// for future use. Stop the agent with [Process.Stop].
func (e *Engine) Start(_ context.Context, binary string, args ...string) (*Process, error) {
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", botly.ErrUnavailable, binary, err)
	}

	cmd, stdin, stdout, err := spawnCmd(resolved, args, e.opts)
	if err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", botly.ErrUnavailable, binary, err)
	}

	e.opts.Logger.Info("agent started", "path", resolved, "pid", cmd.Process.Pid)
	return newProcess(cmd, stdin, stdout, e.opts), nil
}

// spawnCmd builds, configures, and starts an exec.Cmd with piped stdin and
// stdout. opts.Env is passed directly to cmd.Env; nil inherits the parent
// environment.
func spawnCmd(binary string, args []string, opts EngineOptions) (*exec.Cmd, io.WriteCloser, io.ReadCloser, error) {
	cmd := exec.Command(binary, args...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.Stderr = opts.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, nil, err
	}
	return cmd, stdin, stdout, nil
}
