// Package botly bridges a turn-based board-game framework to an external
// agent process that speaks a newline-framed text protocol.
//
// The agent is launched once per game. On launch it prints a readiness
// sentinel ("ready"), then answers every input line with exactly one output
// line. The bridge performs the handshake, tracks whether the game has been
// initialized, and forwards one line per turn.
//
// # Core Types
//
//   - [Bridge]: owns the agent connection and session state
//   - [Conn]: the write/flush/read contract an agent transport implements
//   - [Observation]: per-turn input from the framework
//   - [SessionState]: Uninitialized or Initialized
//   - [Option]: functional options for [New]
//
// # Protocol
//
//	agent  -> bridge   ready
//	bridge -> agent    <board>        (first turn)
//	agent  -> bridge   <move>
//	bridge -> agent    <last move>    (every later turn)
//	agent  -> bridge   <move>
//
// Every exchange is strictly write, flush, read. The bridge never writes a
// second line before the previous reply has been read.
//
// # Quick Start
//
//	proc, err := stdio.NewEngine().Start(ctx, "./target/release/checkmate_engine")
//	if err != nil { log.Fatal(err) }
//	bridge, err := botly.New(ctx, proc)
//	if err != nil { log.Fatal(err) }
//	move, err := bridge.Botly(ctx, botly.Observation{Board: fen})
//
// Failures are never retried. A bridge that has seen a protocol error keeps
// returning it; the caller is expected to abandon the game.
package botly
