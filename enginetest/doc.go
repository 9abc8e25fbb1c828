// Package enginetest provides test doubles and compliance suites for botly
// agent transports.
//
// The in-memory scripted agent and the [botly.Conn] compliance suite live in
// the linetest sub-package.
//
// See enginetest/linetest for usage examples.
package enginetest
