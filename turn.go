package botly

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmora/botly/internal/linefmt"
)

// Botly runs one turn and returns the agent's reply.
//
// The first call sends obs.Board and moves the session to [Initialized];
// every later call sends obs.LastMove. Each call writes one line, flushes,
// and blocks until one reply line arrives. The reply is returned with only
// trailing whitespace removed.
//
// Replies are otherwise opaque, with one exception: a reply that still holds
// a carriage return after trimming (e.g. "e2\re4") or is not valid UTF-8
// fails with an error wrapping both [ErrDesync] and [ErrInvalidLine].
// Likewise a payload containing "\r" or "\n" fails with [ErrInvalidLine]
// before anything is written.
//
// There is no timeout: a silent agent blocks the caller. ctx carries trace
// context and does not abandon a pending read.
//
// Any error is final. The bridge records it and every later call returns it
// without contacting the agent.
func (b *Bridge) Botly(ctx context.Context, obs Observation) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return "", b.err
	}

	phase := PhaseMove
	if b.state == Uninitialized {
		phase = PhaseInitialize
	}

	_, span := b.tracer.Start(ctx, "botly."+string(phase), trace.WithAttributes(
		attribute.String("botly.bridge_id", b.id),
		attribute.Int("botly.turn", b.turns+1),
	))
	defer span.End()

	move, err := b.exchange(phase, obs.payload(phase))
	if err != nil {
		b.err = err
		recordError(span, err)
		b.logger.Error("turn failed", "phase", phase, "turn", b.turns+1, "error", err)
		return "", err
	}

	if phase == PhaseInitialize {
		b.state = Initialized
	}
	b.turns++
	span.SetAttributes(attribute.String("botly.move", move))
	b.logger.Debug("turn complete", "phase", phase, "turn", b.turns, "move", move)
	return move, nil
}

// exchange performs one write-flush-read cycle.
func (b *Bridge) exchange(phase Phase, payload string) (string, error) {
	if err := linefmt.Validate(payload); err != nil {
		return "", fmt.Errorf("%w: %s payload %s", ErrInvalidLine, phase, err)
	}
	if err := b.conn.WriteLine(payload); err != nil {
		return "", fmt.Errorf("%w: %s: write: %w", ErrDesync, phase, err)
	}
	if err := b.conn.Flush(); err != nil {
		return "", fmt.Errorf("%w: %s: flush: %w", ErrDesync, phase, err)
	}
	line, err := b.conn.ReadLine()
	if err != nil {
		return "", fmt.Errorf("%w: %s: read: %w", ErrDesync, phase, err)
	}
	reply := linefmt.TrimReply(line)
	if err := linefmt.Validate(reply); err != nil {
		return "", fmt.Errorf("%w: %w: %s reply %q %s", ErrDesync, ErrInvalidLine, phase, linefmt.Quote(reply), err)
	}
	return reply, nil
}
