package botly

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmora/botly/internal/linefmt"
)

// Bridge forwards framework observations to a running agent, one line per
// turn.
//
// A Bridge owns its Conn exclusively. It is created once per game by [New],
// which performs the readiness handshake, and is never re-initialized.
// Concurrent calls to Botly are serialized so each write-flush-read cycle
// completes before the next begins.
type Bridge struct {
	conn   Conn
	id     string
	logger *slog.Logger
	tracer trace.Tracer

	mu    sync.Mutex // serializes turns
	state SessionState
	turns int
	err   error // first failure; sticky
}

// New performs the startup handshake on conn and returns a ready Bridge.
//
// New reads exactly one line and requires it to equal the readiness
// sentinel (trailing whitespace ignored). A different line, or a closed
// connection, returns an error wrapping [ErrNotReady]. There is no retry.
func New(ctx context.Context, conn Conn, opts ...Option) (*Bridge, error) {
	o := ResolveOptions(opts...)
	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}
	b := &Bridge{
		conn:   conn,
		id:     id,
		logger: o.Logger.With("bridge", id),
		tracer: o.TracerProvider.Tracer(instrumentationName),
	}

	_, span := b.tracer.Start(ctx, "botly.handshake", trace.WithAttributes(
		attribute.String("botly.bridge_id", id),
	))
	defer span.End()

	line, err := conn.ReadLine()
	if err != nil {
		err = fmt.Errorf("%w: waiting for %q: %w", ErrNotReady, o.Sentinel, err)
		recordError(span, err)
		b.logger.Error("agent handshake failed", "error", err)
		return nil, err
	}
	if got := linefmt.TrimReply(line); got != o.Sentinel {
		err = fmt.Errorf("%w: got %q, want %q", ErrNotReady, linefmt.Quote(got), o.Sentinel)
		recordError(span, err)
		b.logger.Error("agent handshake failed", "error", err)
		return nil, err
	}

	b.logger.Debug("agent ready")
	return b, nil
}

// ID returns the bridge identifier.
func (b *Bridge) ID() string { return b.id }

// State returns the current session state.
func (b *Bridge) State() SessionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Turns returns the number of completed turns, including the initial one.
func (b *Bridge) Turns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.turns
}

// Err returns the failure that ended the session, or nil.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
