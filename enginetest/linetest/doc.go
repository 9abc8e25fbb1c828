// Package linetest provides an in-memory agent and a compliance suite for
// [botly.Conn] implementations.
//
// [Agent] satisfies [botly.Conn] without a subprocess. It greets with the
// readiness sentinel, answers each flushed line through a [Responder], and
// records every write, flush and read so tests can check ordering.
//
//	agent := linetest.NewAgent(linetest.Chess())
//	bridge, err := botly.New(ctx, agent)
//	...
//	linetest.AssertAlternating(t, agent.Transcript())
//
// Transport authors call [RunConnTests] with a factory that returns a Conn
// connected to an echo agent:
//
//	func TestCompliance(t *testing.T) {
//	    linetest.RunConnTests(t, func(t *testing.T) botly.Conn {
//	        return startEchoAgent(t)
//	    })
//	}
package linetest
