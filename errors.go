package botly

import (
	"errors"
	"strconv"
)

// Sentinel errors for bridge and transport operations.
var (
	// ErrUnavailable indicates the agent could not be launched
	// (binary not found, not executable, spawn failure).
	ErrUnavailable = errors.New("botly: agent unavailable")

	// ErrNotReady indicates the agent's first line was not the readiness
	// sentinel, or the agent closed its output before sending one.
	ErrNotReady = errors.New("botly: agent not ready")

	// ErrDesync indicates the line protocol can no longer be trusted
	// (output closed mid-session, reply without terminator, oversized line).
	ErrDesync = errors.New("botly: protocol desynchronized")

	// ErrInvalidLine indicates a line that cannot be framed: embedded
	// line breaks or invalid UTF-8.
	ErrInvalidLine = errors.New("botly: invalid protocol line")

	// ErrTerminated indicates the agent process was stopped.
	ErrTerminated = errors.New("botly: agent terminated")
)

// ExitError represents an agent process that exited with a non-zero status.
// Wraps the underlying error to preserve the error chain; consumers can
// errors.As to *exec.ExitError for OS-level detail (signal info, etc.).
//
// Code semantics: positive = exit status, negative (-1) = signal-killed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "botly: exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the error does not contain an ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
