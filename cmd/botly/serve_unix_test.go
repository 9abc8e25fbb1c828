//go:build unix

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentAgent reports ready, records its pid and then never answers.
const silentAgent = "#!/bin/sh\necho $$ > agent.pid\necho ready\nexec cat >/dev/null\n"

func TestServe_CancelReapsAgent(t *testing.T) {
	tests := []struct {
		name string
		feed string
	}{
		{name: "IdleStdin"},
		{name: "TurnInFlight", feed: "{\"board\":\"startpos\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			agent := writeScript(t, dir, "agent", silentAgent)

			stdinR, stdinW := io.Pipe()
			t.Cleanup(func() { _ = stdinW.Close() })
			stderr := &syncBuffer{}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- run(ctx, env{stdin: stdinR, stdout: &syncBuffer{}, stderr: stderr},
					[]string{"serve", "--executable", agent, "--log-level", "debug"})
			}()

			var pid int
			require.Eventually(t, func() bool {
				data, err := os.ReadFile(filepath.Join(dir, "agent.pid"))
				if err != nil {
					return false
				}
				pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
				return err == nil
			}, 10*time.Second, 10*time.Millisecond)
			require.Eventually(t, func() bool {
				return strings.Contains(stderr.String(), "agent ready")
			}, 10*time.Second, 10*time.Millisecond, stderr.String())

			if tt.feed != "" {
				_, err := io.WriteString(stdinW, tt.feed)
				require.NoError(t, err)
			}
			cancel()

			select {
			case err := <-done:
				require.ErrorIs(t, err, context.Canceled)
			case <-time.After(10 * time.Second):
				t.Fatalf("serve did not return after cancel; stderr:\n%s", stderr.String())
			}
			err := syscall.Kill(pid, 0)
			assert.True(t, errors.Is(err, syscall.ESRCH), "agent %d still exists: %v", pid, err)
		})
	}
}
