package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and optionally produces the output file.
type fakeRunner struct {
	calls  []Command
	output string // written relative to cmd.Dir when non-empty
	err    error
}

func (f *fakeRunner) Run(_ context.Context, c Command) error {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return f.err
	}
	if f.output != "" {
		path := filepath.Join(c.Dir, f.output)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte("\x7fELF"), 0o755)
	}
	return nil
}

func envValue(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], key+"="); ok {
			return v, true
		}
	}
	return "", false
}

func TestBuild_FixedDirectives(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{output: "target/release/checkmate_engine"}
	o := New(WithProjectDir(dir), WithRunner(runner), WithEnv([]string{"PATH=/usr/bin", "RUSTFLAGS=-O"}))

	path, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "target", "release", "checkmate_engine"), path)
	assert.True(t, filepath.IsAbs(path))

	require.Len(t, runner.calls, 1)
	c := runner.calls[0]
	assert.Equal(t, "cargo", c.Name)
	assert.Equal(t, dir, c.Dir)
	assert.Equal(t, []string{
		"+nightly", "build", "--release",
		"-Z", "build-std=std,panic_abort",
		"-Z", "build-std-features=optimize_for_size",
		"-Z", "build-std-features=panic_immediate_abort",
	}, c.Args)

	flags, ok := envValue(c.Env, "RUSTFLAGS")
	require.True(t, ok)
	assert.Equal(t, "-C target-cpu=native -Zlocation-detail=none -Zfmt-debug=none", flags)
	assert.Contains(t, c.Env, "PATH=/usr/bin", "base environment is inherited")
}

func TestBuild_CommandDoesNotAliasDirectives(t *testing.T) {
	o := New()
	c := o.Command()
	c.Args[0] = "+stable"
	assert.Equal(t, "+nightly", o.Command().Args[0])
}

func TestBuild_CustomBinaryAndCargo(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{output: "target/release/engine"}
	o := New(WithProjectDir(dir), WithBinary("engine"), WithCargo("/opt/cargo"), WithRunner(runner))

	path, err := o.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "engine", filepath.Base(path))
	assert.Equal(t, "/opt/cargo", runner.calls[0].Name)
}

func TestBuild_CompilerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 101")}
	_, err := New(WithProjectDir(t.TempDir()), WithRunner(runner)).Build(context.Background())
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "exit status 101")
}

func TestBuild_MissingOutput(t *testing.T) {
	runner := &fakeRunner{}
	_, err := New(WithProjectDir(t.TempDir()), WithRunner(runner)).Build(context.Background())
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuild_OutputIsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target", "release", "checkmate_engine"), 0o755))
	_, err := New(WithProjectDir(dir), WithRunner(&fakeRunner{})).Build(context.Background())
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestBuild_EmptyOptionsKeepDefaults(t *testing.T) {
	o := New(WithProjectDir(""), WithBinary(""), WithCargo(""), WithRunner(nil), WithLogger(nil), nil)
	assert.Equal(t, ".", o.opts.ProjectDir)
	assert.Equal(t, DefaultBinary, o.opts.Binary)
	assert.Equal(t, DefaultCargo, o.opts.Cargo)
	assert.NotNil(t, o.opts.Runner)
	assert.NotNil(t, o.opts.Logger)
}

// TestExecRunner drives a real subprocess standing in for cargo.
func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(t.TempDir(), "fake-cargo")
	require.NoError(t, os.WriteFile(script, []byte(`#!/bin/sh
echo "cargo $*"
mkdir -p target/release
printf '%s' "$RUSTFLAGS" > target/release/checkmate_engine
`), 0o755))

	var out bytes.Buffer
	o := New(
		WithProjectDir(dir),
		WithCargo(script),
		WithRunner(ExecRunner{Stdout: &out, Stderr: &out}),
	)
	path, err := o.Build(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "cargo +nightly build --release")
	flags, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "-C target-cpu=native -Zlocation-detail=none -Zfmt-debug=none", string(flags))
}

func TestExecRunner_Canceled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "slow-cargo")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 30\n"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(WithProjectDir(t.TempDir()), WithCargo(script)).Build(ctx)
	require.ErrorIs(t, err, ErrBuildFailed)
}
