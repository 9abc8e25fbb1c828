package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dmora/botly"
	"github.com/dmora/botly/config"
	"github.com/dmora/botly/engine/stdio"
	"github.com/dmora/botly/internal/telemetry"
)

func runServe(ctx context.Context, e env, args []string) error {
	var common commonFlags
	var executable, entry, sentinel string
	fs := newFlagSet("serve", "[flags]", e.stderr)
	common.add(fs)
	fs.StringVar(&executable, "executable", "", "agent executable (overrides the entry document)")
	fs.StringVar(&entry, "entry", "", "entry document (default agent.entry)")
	fs.StringVar(&sentinel, "sentinel", "", "readiness line (default agent.sentinel)")
	if handled, err := parse(fs, args); handled || err != nil {
		return err
	}

	cfg, err := common.load(fs)
	if err != nil {
		return err
	}
	if executable != "" {
		cfg.Agent.Executable = executable
	}
	if entry != "" {
		cfg.Agent.Entry = entry
	}
	if sentinel != "" {
		cfg.Agent.Sentinel = sentinel
	}
	logger, err := newLogger(cfg.Log, e.stderr)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	target, err := resolveAgent(ctx, cfg, e.stderr, logger)
	if err != nil {
		return err
	}

	engine := stdio.NewEngine(
		stdio.WithMaxLineBytes(cfg.Agent.MaxLineBytes),
		stdio.WithGracePeriod(cfg.Agent.GracePeriod.Std()),
		stdio.WithDir(cfg.Agent.Dir),
		stdio.WithStderr(e.stderr),
		stdio.WithLogger(logger),
	)
	proc, err := engine.Start(ctx, target.executable, target.args...)
	if err != nil {
		return err
	}
	defer func() { _ = proc.Stop(context.Background()) }()

	// Turns block in pipe reads that ignore ctx; stopping the agent is what
	// releases them.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("serve interrupted", "error", ctx.Err())
			_ = proc.Stop(context.Background())
		case <-stopped:
		}
	}()

	bridge, err := botly.New(ctx, proc,
		botly.WithSentinel(target.sentinel),
		botly.WithLogger(logger),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return serveLoop(ctx, bridge, e.stdin, e.stdout, cfg.Agent.MaxLineBytes)
}

// agentTarget is the resolved launch command.
type agentTarget struct {
	executable string
	args       []string
	sentinel   string
}

// resolveAgent picks the executable: agent.executable when set, otherwise
// the entry document, building first for the development variant.
func resolveAgent(ctx context.Context, cfg *config.Config, stderr io.Writer, logger *slog.Logger) (agentTarget, error) {
	t := agentTarget{
		executable: cfg.Agent.Executable,
		args:       cfg.Agent.Args,
		sentinel:   cfg.Agent.Sentinel,
	}
	if t.executable != "" {
		return t, nil
	}

	e, err := config.LoadEntry(cfg.Agent.Entry)
	if err != nil {
		return t, err
	}
	if len(e.Args) > 0 {
		t.args = e.Args
	}
	if e.Sentinel != "" {
		t.sentinel = e.Sentinel
	}
	logger.Info("entry loaded", "path", cfg.Agent.Entry, "variant", string(e.Variant))

	switch e.Variant {
	case config.VariantDevelopment:
		t.executable, err = newOrchestrator(*e.Build, stderr, logger).Build(ctx)
		if err != nil {
			return t, err
		}
	default:
		t.executable = e.Executable
	}
	return t, nil
}

// serveLoop answers each JSON observation line from in with one move line
// on out. It returns nil at EOF on in, ctx.Err() once ctx is done, and the
// first bridge error otherwise.
func serveLoop(ctx context.Context, bridge *botly.Bridge, in io.Reader, out io.Writer, maxLine int) error {
	lines, errc := scanLines(ctx, in, maxLine)
	w := bufio.NewWriter(out)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := <-errc; err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return fmt.Errorf("read observations: %w", err)
				}
				return nil
			}
			line = l
		}

		var obs botly.Observation
		if err := json.Unmarshal(line, &obs); err != nil {
			return fmt.Errorf("observation %d: %w", bridge.Turns()+1, err)
		}
		move, err := bridge.Botly(ctx, obs)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if _, err := w.WriteString(move + "\n"); err != nil {
			return fmt.Errorf("write move: %w", err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("write move: %w", err)
		}
	}
}

// scanLines feeds the non-blank lines of in to the returned channel until
// EOF, a read error, or ctx is done. The channel is closed afterwards and
// the terminal error (nil at EOF) is sent on errc. A reader blocked in
// Read stays blocked until in delivers data or is closed.
func scanLines(ctx context.Context, in io.Reader, maxLine int) (<-chan []byte, <-chan error) {
	lines := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 4096), maxLine)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- bytes.Clone(line):
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- sc.Err()
	}()
	return lines, errc
}
