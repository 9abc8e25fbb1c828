// Package stdio runs an agent executable as a subprocess and exposes its
// standard input and output as a [botly.Conn].
//
// [NewEngine] resolves construction-time options. [Engine.Start] spawns the
// executable with stdin and stdout piped for the caller's exclusive use and
// returns a [Process]. The agent's stderr is forwarded to a configurable
// writer (os.Stderr by default).
//
// Lines are read with a bounded buffer ([WithMaxLineBytes]). A reply longer
// than the bound, or output that ends without a terminator, is reported as
// [botly.ErrDesync].
//
// # Platform Support
//
// [Process.Stop] uses Unix signals (SIGTERM, then SIGKILL after a grace
// period) and is not available on Windows.
//
// # Consumer Obligations
//
// Callers must call [Process.Stop] (or [Process.Wait] after the agent exits
// on its own) to reap the subprocess.
package stdio
