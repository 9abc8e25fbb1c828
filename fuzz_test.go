package botly_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/dmora/botly"
	"github.com/dmora/botly/enginetest/linetest"
)

func FuzzBotlyReply(f *testing.F) {
	f.Add("e2e4")
	f.Add("e2e4 \t\r")
	f.Add("  bestmove e2e4")
	f.Add("")
	f.Add("\xff\xfe")
	f.Add("a\rb")

	f.Fuzz(func(t *testing.T, reply string) {
		agent := linetest.NewAgent(linetest.Map(map[string]string{"startpos": reply}))
		b, err := botly.New(context.Background(), agent)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		move, err := b.Botly(context.Background(), botly.Observation{Board: "startpos"})

		trimmed := strings.TrimRightFunc(reply, unicode.IsSpace)
		framable := utf8.ValidString(trimmed) && !strings.ContainsAny(trimmed, "\r\n")
		if !framable {
			if !errors.Is(err, botly.ErrDesync) {
				t.Fatalf("reply %q: err = %v, want ErrDesync", reply, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("reply %q: %v", reply, err)
		}
		if move != trimmed {
			t.Fatalf("reply %q: move = %q, want %q", reply, move, trimmed)
		}
	})
}

func FuzzBotlyPayload(f *testing.F) {
	f.Add("startpos")
	f.Add("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	f.Add("a\nb")
	f.Add("\x00")

	f.Fuzz(func(t *testing.T, board string) {
		agent := linetest.NewAgent(linetest.Echo())
		b, err := botly.New(context.Background(), agent)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		_, err = b.Botly(context.Background(), botly.Observation{Board: board})
		if err != nil && !errors.Is(err, botly.ErrInvalidLine) && !errors.Is(err, botly.ErrDesync) {
			t.Fatalf("board %q: unexpected error class %v", board, err)
		}
		// The agent only ever sees framable lines.
		for _, line := range agent.Received() {
			if strings.ContainsAny(line, "\r\n") || !utf8.ValidString(line) {
				t.Fatalf("unframable line reached the agent: %q", line)
			}
		}
	})
}
