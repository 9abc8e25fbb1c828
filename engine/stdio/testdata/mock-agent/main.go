//go:build ignore

// Command mock-agent simulates a board-game agent for integration tests.
// It prints "ready", then answers every stdin line with one stdout line.
//
// Environment variables control behavior:
//
//	MOCK_AGENT_MODE=echo          reply with the received line (default)
//	MOCK_AGENT_MODE=chess         startpos→e2e4, e7e5→g1f3, otherwise echo
//	MOCK_AGENT_MODE=bad-sentinel  greet with "booting" instead of "ready"
//	MOCK_AGENT_MODE=silent        exit 0 without printing anything
//	MOCK_AGENT_MODE=no-newline    answer the first line without a terminator, then exit
//	MOCK_AGENT_MODE=long-line     answer with a 64 KiB line
//	MOCK_AGENT_MODE=crlf          terminate replies with "\r\n"
//	MOCK_AGENT_MODE=exit-after-init answer the first line, then exit 3
//	MOCK_AGENT_MODE=ignore-term   ignore SIGTERM and stdin EOF (needs SIGKILL)
//	MOCK_AGENT_MODE=pwd           reply with the working directory
//	MOCK_AGENT_MODE=stderr        also write each received line to stderr
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	mode := os.Getenv("MOCK_AGENT_MODE")
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	switch mode {
	case "silent":
		return
	case "bad-sentinel":
		fmt.Fprintln(out, "booting")
	case "ignore-term":
		signal.Ignore(syscall.SIGTERM)
		fmt.Fprintln(out, "ready")
	default:
		fmt.Fprintln(out, "ready")
	}
	out.Flush()

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 4096), 1<<20)
	turns := 0
	for in.Scan() {
		line := in.Text()
		turns++
		switch mode {
		case "chess":
			fmt.Fprintln(out, chess(line))
		case "no-newline":
			fmt.Fprint(out, line)
			return
		case "long-line":
			fmt.Fprintln(out, strings.Repeat("x", 64<<10))
		case "crlf":
			fmt.Fprint(out, line+"\r\n")
		case "exit-after-init":
			fmt.Fprintln(out, line)
			out.Flush()
			os.Exit(3)
		case "pwd":
			wd, _ := os.Getwd()
			fmt.Fprintln(out, wd)
		case "stderr":
			fmt.Fprintln(os.Stderr, "got "+line)
			fmt.Fprintln(out, line)
		default:
			fmt.Fprintln(out, line)
		}
		out.Flush()
	}

	if mode == "ignore-term" {
		for {
			time.Sleep(time.Hour)
		}
	}
}

func chess(line string) string {
	switch line {
	case "startpos":
		return "e2e4"
	case "e7e5":
		return "g1f3"
	default:
		return line
	}
}
