//go:build !windows

package stdio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dmora/botly"
	"github.com/dmora/botly/internal/linefmt"
)

// signalProcess sends sig to a process, returning nil if the process
// has already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// Process is a running agent subprocess. It implements [botly.Conn].
//
// WriteLine, Flush and ReadLine are not safe for concurrent use; the bridge
// serializes them. Stop and Wait may be called from any goroutine.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	w      *bufio.Writer
	r      *bufio.Reader
	opts   EngineOptions
	logger *slog.Logger

	waitOnce sync.Once
	done     chan struct{} // closed when cmd.Wait returns
	waitErr  error         // set before done closes

	stopping atomic.Bool
	stopOnce sync.Once
}

var _ botly.Conn = (*Process)(nil)

func newProcess(cmd *exec.Cmd, stdin io.WriteCloser, stdout io.Reader, opts EngineOptions) *Process {
	return &Process{
		cmd:    cmd,
		stdin:  stdin,
		w:      bufio.NewWriter(stdin),
		r:      bufio.NewReaderSize(stdout, min(4096, opts.MaxLineBytes)),
		opts:   opts,
		logger: opts.Logger.With("pid", cmd.Process.Pid),
		done:   make(chan struct{}),
	}
}

// PID returns the agent's process ID.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Path returns the resolved executable path.
func (p *Process) Path() string { return p.cmd.Path }

// WriteLine buffers line and its terminator.
func (p *Process) WriteLine(line string) error {
	if p.stopping.Load() {
		return botly.ErrTerminated
	}
	if _, err := p.w.WriteString(line); err != nil {
		return fmt.Errorf("stdio: write stdin: %w", err)
	}
	if err := p.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("stdio: write stdin: %w", err)
	}
	return nil
}

// Flush pushes buffered lines to the agent's stdin.
func (p *Process) Flush() error {
	if p.stopping.Load() {
		return botly.ErrTerminated
	}
	if err := p.w.Flush(); err != nil {
		return fmt.Errorf("stdio: flush stdin: %w", err)
	}
	return nil
}

// ReadLine blocks for the next line on the agent's stdout.
func (p *Process) ReadLine() (string, error) {
	if p.stopping.Load() {
		return "", botly.ErrTerminated
	}
	return readLine(p.r, p.opts.MaxLineBytes)
}

// readLine reads one '\n'-terminated line of at most limit bytes and
// returns it without the terminator.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(buf)+len(chunk) > limit {
			return "", fmt.Errorf("%w: line exceeds %d bytes", botly.ErrDesync, limit)
		}
		buf = append(buf, chunk...)
		switch {
		case err == nil:
			return string(buf[:len(buf)-1]), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return "", io.EOF
			}
			return "", fmt.Errorf("stdio: partial line %q: %w", linefmt.Quote(string(buf)), io.ErrUnexpectedEOF)
		default:
			return "", fmt.Errorf("stdio: read stdout: %w", err)
		}
	}
}

// Stop terminates the agent. It closes stdin, sends SIGTERM, and sends
// SIGKILL if the agent has not exited after the grace period or when ctx
// is done. Safe to call multiple times; blocks until the agent is reaped.
//
// Stop always returns nil. The exit status is not reported here: after Stop,
// Wait returns [botly.ErrTerminated].
func (p *Process) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopping.Store(true)
		_ = p.stdin.Close() // Best-effort: pipe may already be closed.
		p.startWait()

		_ = signalProcess(p.cmd.Process, unix.SIGTERM)

		forced := false
		select {
		case <-p.done:
		case <-time.After(p.opts.GracePeriod):
			forced = true
			_ = signalProcess(p.cmd.Process, unix.SIGKILL)
			<-p.done
		case <-ctx.Done():
			forced = true
			_ = signalProcess(p.cmd.Process, unix.SIGKILL)
			<-p.done
		}
		p.logger.Info("agent stopped", "forced", forced)
	})

	<-p.done
	return nil
}

// Wait blocks until the agent exits. Returns nil on a clean exit, an error
// wrapping *botly.ExitError on a non-zero status, or botly.ErrTerminated
// when the exit was caused by Stop.
func (p *Process) Wait() error {
	p.startWait()
	<-p.done
	if p.stopping.Load() {
		return botly.ErrTerminated
	}
	return p.waitErr
}

// startWait reaps the subprocess in the background exactly once.
func (p *Process) startWait() {
	p.waitOnce.Do(func() {
		go func() {
			p.waitErr = wrapExitError(p.cmd.Wait())
			close(p.done)
		}()
	})
}

// wrapExitError converts a non-zero *exec.ExitError to *botly.ExitError.
// nil → nil, non-ExitError → passthrough, code 0 → nil (clean exit).
// Preserves the error chain via ExitError.Unwrap.
func wrapExitError(err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return err
	}
	code := ee.ExitCode()
	if code == 0 {
		return nil
	}
	return &botly.ExitError{Code: code, Err: err}
}
