package linetest

import (
	"io"
	"sync"

	"github.com/dmora/botly"
)

// OpKind identifies an operation recorded in an Agent transcript.
type OpKind string

// Transcript operation kinds.
const (
	OpWrite OpKind = "write"
	OpFlush OpKind = "flush"
	OpRead  OpKind = "read"
)

// Op is one recorded Conn call. Line is set for writes and successful reads.
type Op struct {
	Kind OpKind
	Line string
}

// Responder maps a line the agent received to the line it prints back.
// The returned line is delivered to ReadLine as-is (no terminator).
type Responder func(line string) string

// Echo replies with the received line.
func Echo() Responder {
	return func(line string) string { return line }
}

// Map replies from a fixed table and echoes unknown lines.
func Map(replies map[string]string) Responder {
	return func(line string) string {
		if r, ok := replies[line]; ok {
			return r
		}
		return line
	}
}

// Chess replies to the opening exchange used throughout the tests:
// "startpos" -> "e2e4", "e7e5" -> "g1f3".
func Chess() Responder {
	return Map(map[string]string{
		"startpos": "e2e4",
		"e7e5":     "g1f3",
	})
}

// Agent is an in-memory agent implementing [botly.Conn].
//
// Lines passed to WriteLine are buffered until Flush, which hands each one
// to the Responder and queues its reply. ReadLine pops the next queued line.
// An Agent with nothing queued behaves like a closed pipe: ReadLine returns
// io.EOF (or io.ErrUnexpectedEOF when a partial tail was configured), since
// a real agent would block forever there.
type Agent struct {
	mu         sync.Mutex
	respond    Responder
	closeAfter int // replies before output closes
	limited    bool
	tail       string

	buffered   []string
	pending    []string
	received   []string
	transcript []Op
	replies    int
	closed     bool
}

var _ botly.Conn = (*Agent)(nil)

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithGreeting replaces the readiness line the agent prints on start.
func WithGreeting(line string) AgentOption {
	return func(a *Agent) {
		a.pending = []string{line}
	}
}

// WithoutGreeting starts the agent with nothing to read, as if it exited
// before printing the sentinel.
func WithoutGreeting() AgentOption {
	return func(a *Agent) {
		a.pending = nil
	}
}

// WithCloseAfter closes the agent's output after n replies. Later flushed
// lines get no reply. n == 0 closes right after the greeting.
func WithCloseAfter(n int) AgentOption {
	return func(a *Agent) {
		a.closeAfter = n
		a.limited = true
		a.closed = n <= 0
	}
}

// WithPartialTail makes the agent print tail without a terminator once its
// queued output is exhausted, so the next ReadLine fails with
// io.ErrUnexpectedEOF.
func WithPartialTail(tail string) AgentOption {
	return func(a *Agent) {
		a.tail = tail
	}
}

// NewAgent returns an agent that greets with [botly.DefaultSentinel] and
// answers through respond. A nil respond echoes.
func NewAgent(respond Responder, opts ...AgentOption) *Agent {
	if respond == nil {
		respond = Echo()
	}
	a := &Agent{
		respond: respond,
		pending: []string{botly.DefaultSentinel},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// WriteLine buffers line until Flush.
func (a *Agent) WriteLine(line string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transcript = append(a.transcript, Op{Kind: OpWrite, Line: line})
	a.buffered = append(a.buffered, line)
	return nil
}

// Flush delivers buffered lines to the Responder.
func (a *Agent) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transcript = append(a.transcript, Op{Kind: OpFlush})
	for _, line := range a.buffered {
		a.received = append(a.received, line)
		if a.closed {
			continue
		}
		a.pending = append(a.pending, a.respond(line))
		a.replies++
		if a.limited && a.replies >= a.closeAfter {
			a.closed = true
		}
	}
	a.buffered = nil
	return nil
}

// ReadLine pops the next queued line.
func (a *Agent) ReadLine() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) == 0 {
		a.transcript = append(a.transcript, Op{Kind: OpRead})
		if a.tail != "" {
			return a.tail, io.ErrUnexpectedEOF
		}
		return "", io.EOF
	}
	line := a.pending[0]
	a.pending = a.pending[1:]
	a.transcript = append(a.transcript, Op{Kind: OpRead, Line: line})
	return line, nil
}

// Received returns every line the agent has been sent, in order.
func (a *Agent) Received() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.received...)
}

// Transcript returns every recorded Conn call, in order.
func (a *Agent) Transcript() []Op {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Op(nil), a.transcript...)
}

// Unread reports how many agent lines are queued but not yet read.
func (a *Agent) Unread() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
