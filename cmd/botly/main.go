// Command botly hosts a board-game agent process and prepares it for
// submission.
//
//	botly serve     relay JSON observations on stdin to the agent, moves to stdout
//	botly build     compile the agent with the release profile
//	botly package   bundle the agent executable into a compressed archive
//	botly entry     print an entry document
//	botly version   print the version
//
// Logs go to stderr; in serve mode stdout carries only moves.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

// env carries the process streams so commands can be driven from tests.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e env, args []string) error
}

var commands = map[string]command{
	"serve":   {"relay observations to the agent and print its moves", runServe},
	"build":   {"compile the agent executable", runBuild},
	"package": {"bundle the agent into a submission archive", runPackage},
	"entry":   {"print an entry document", runEntry},
	"version": {"print the version", runVersion},
}

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}, os.Args[1:])
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, e env, args []string) error {
	if len(args) == 0 {
		printUsage(e.stderr)
		return errUsage
	}
	name := args[0]
	switch name {
	case "-h", "--help", "help":
		printUsage(e.stdout)
		return nil
	case "--version":
		name = "version"
	}
	cmd, ok := commands[name]
	if !ok {
		printUsage(e.stderr)
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd.run(ctx, e, args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: botly <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'botly <command> --help' for command flags.")
}

func runVersion(_ context.Context, e env, _ []string) error {
	fmt.Fprintf(e.stdout, "botly %s\n", version)
	return nil
}
