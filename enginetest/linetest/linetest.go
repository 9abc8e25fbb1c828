package linetest

import (
	"testing"

	"github.com/dmora/botly"
)

// AssertAlternating checks that a transcript follows the bridge discipline:
// an optional leading handshake read, then repeated write, flush, read
// triples with no second write before the pending reply is read.
func AssertAlternating(t testing.TB, ops []Op) {
	t.Helper()

	i := 0
	if len(ops) > 0 && ops[0].Kind == OpRead {
		i = 1
	}
	want := []OpKind{OpWrite, OpFlush, OpRead}
	for step := 0; i < len(ops); i, step = i+1, step+1 {
		if got := ops[i].Kind; got != want[step%len(want)] {
			t.Errorf("op %d = %s, want %s (transcript %v)", i, got, want[step%len(want)], ops)
			return
		}
	}
}

// RunConnTests runs the [botly.Conn] compliance suite.
//
// factory is called once per subtest and must return a Conn attached to a
// fresh agent that greets with [botly.DefaultSentinel] and then echoes every
// line it receives.
func RunConnTests(t *testing.T, factory func(t *testing.T) botly.Conn) {
	t.Helper()

	t.Run("Greeting", func(t *testing.T) {
		conn := factory(t)
		line, err := conn.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine greeting: %v", err)
		}
		if line != botly.DefaultSentinel {
			t.Errorf("greeting = %q, want %q", line, botly.DefaultSentinel)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		conn := factory(t)
		mustGreet(t, conn)
		if got := roundTrip(t, conn, "startpos"); got != "startpos" {
			t.Errorf("echo = %q, want %q", got, "startpos")
		}
	})

	t.Run("Sequential", func(t *testing.T) {
		conn := factory(t)
		mustGreet(t, conn)
		for _, line := range []string{"e2e4", "e7e5", "g1f3", "b8c6"} {
			if got := roundTrip(t, conn, line); got != line {
				t.Errorf("echo = %q, want %q", got, line)
			}
		}
	})

	t.Run("EmptyLine", func(t *testing.T) {
		conn := factory(t)
		mustGreet(t, conn)
		if got := roundTrip(t, conn, ""); got != "" {
			t.Errorf("echo = %q, want empty", got)
		}
	})

	t.Run("Unicode", func(t *testing.T) {
		conn := factory(t)
		mustGreet(t, conn)
		const line = "♔♕♖ rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
		if got := roundTrip(t, conn, line); got != line {
			t.Errorf("echo = %q, want %q", got, line)
		}
	})

	t.Run("RepeatedFlush", func(t *testing.T) {
		// A Flush with nothing buffered is a no-op.
		conn := factory(t)
		mustGreet(t, conn)
		if err := conn.WriteLine("a7a6"); err != nil {
			t.Fatalf("WriteLine: %v", err)
		}
		if err := conn.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		if err := conn.Flush(); err != nil {
			t.Fatalf("second Flush: %v", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if line != "a7a6" {
			t.Errorf("echo = %q, want %q", line, "a7a6")
		}
	})
}

func mustGreet(t *testing.T, conn botly.Conn) {
	t.Helper()
	if _, err := conn.ReadLine(); err != nil {
		t.Fatalf("ReadLine greeting: %v", err)
	}
}

func roundTrip(t *testing.T, conn botly.Conn, line string) string {
	t.Helper()
	if err := conn.WriteLine(line); err != nil {
		t.Fatalf("WriteLine(%q): %v", line, err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, err := conn.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine after %q: %v", line, err)
	}
	return got
}
