package botly

// Conn is the line transport to a running agent.
//
// Implementations frame each unit as one line terminated by "\n". WriteLine
// buffers a line (the terminator is appended by the implementation), Flush
// pushes buffered bytes to the agent, and ReadLine blocks until one complete
// line is available. ReadLine returns the line without its terminator.
//
// ReadLine must return an error wrapping io.EOF when the agent closed its
// output cleanly between lines, and io.ErrUnexpectedEOF when output ended in
// the middle of a line (missing terminator).
//
// Conn is an interface so tests can substitute an in-memory agent; see
// enginetest/linetest.
type Conn interface {
	// WriteLine buffers line followed by a newline.
	WriteLine(line string) error

	// Flush sends buffered output to the agent.
	Flush() error

	// ReadLine blocks for the next line from the agent.
	ReadLine() (string, error)
}
