package botly

import "fmt"

// SessionState tracks whether the agent has received the initial board.
type SessionState uint8

const (
	// Uninitialized is the state before the first successful turn.
	Uninitialized SessionState = iota

	// Initialized is entered after the initial board has been answered.
	// It is never left.
	Initialized
)

// String returns the lower-case state name.
func (s SessionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	default:
		return fmt.Sprintf("SessionState(%d)", uint8(s))
	}
}

// Phase identifies which half of the protocol a turn runs.
type Phase string

const (
	// PhaseInitialize sends the full board. Runs once.
	PhaseInitialize Phase = "initialize"

	// PhaseMove sends the last move played. Runs every later turn.
	PhaseMove Phase = "move"
)

// Observation is the per-turn input supplied by the game framework.
//
// Observation is a value type; the bridge reads the field the current phase
// needs and does not keep it.
type Observation struct {
	// Board is the full board encoding (e.g. FEN). Used on the first turn only.
	Board string `json:"board"`

	// LastMove is the most recent move (e.g. UCI). Used on every later turn.
	LastMove string `json:"lastMove"`
}

// payload returns the line sent to the agent for phase.
func (o Observation) payload(phase Phase) string {
	if phase == PhaseInitialize {
		return o.Board
	}
	return o.LastMove
}
