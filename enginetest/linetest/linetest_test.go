package linetest_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmora/botly"
	"github.com/dmora/botly/enginetest/linetest"
)

func TestAgentCompliance(t *testing.T) {
	linetest.RunConnTests(t, func(t *testing.T) botly.Conn {
		return linetest.NewAgent(linetest.Echo())
	})
}

func TestAgent_GreetingOptions(t *testing.T) {
	a := linetest.NewAgent(nil, linetest.WithGreeting("hello"))
	line, err := a.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	silent := linetest.NewAgent(nil, linetest.WithoutGreeting())
	_, err = silent.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestAgent_CloseAfter(t *testing.T) {
	a := linetest.NewAgent(linetest.Echo(), linetest.WithCloseAfter(1))
	_, err := a.ReadLine()
	require.NoError(t, err)

	require.NoError(t, a.WriteLine("one"))
	require.NoError(t, a.Flush())
	line, err := a.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	require.NoError(t, a.WriteLine("two"))
	require.NoError(t, a.Flush())
	_, err = a.ReadLine()
	assert.True(t, errors.Is(err, io.EOF), "want io.EOF, got %v", err)
	assert.Equal(t, []string{"one", "two"}, a.Received())
}

func TestAgent_PartialTail(t *testing.T) {
	a := linetest.NewAgent(nil, linetest.WithCloseAfter(0), linetest.WithPartialTail("e2"))
	_, err := a.ReadLine()
	require.NoError(t, err)

	require.NoError(t, a.WriteLine("startpos"))
	require.NoError(t, a.Flush())
	_, err = a.ReadLine()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestAgent_NoReplyBeforeFlush(t *testing.T) {
	a := linetest.NewAgent(linetest.Echo())
	_, err := a.ReadLine()
	require.NoError(t, err)

	require.NoError(t, a.WriteLine("e2e4"))
	assert.Zero(t, a.Unread(), "reply must not be queued before Flush")
	require.NoError(t, a.Flush())
	assert.Equal(t, 1, a.Unread())
}

func TestChessResponder(t *testing.T) {
	r := linetest.Chess()
	assert.Equal(t, "e2e4", r("startpos"))
	assert.Equal(t, "g1f3", r("e7e5"))
	assert.Equal(t, "d2d4", r("d2d4"))
}

func TestAssertAlternating_Accepts(t *testing.T) {
	ops := []linetest.Op{
		{Kind: linetest.OpRead, Line: "ready"},
		{Kind: linetest.OpWrite, Line: "startpos"},
		{Kind: linetest.OpFlush},
		{Kind: linetest.OpRead, Line: "e2e4"},
		{Kind: linetest.OpWrite, Line: "e7e5"},
		{Kind: linetest.OpFlush},
		{Kind: linetest.OpRead, Line: "g1f3"},
	}
	linetest.AssertAlternating(t, ops)
}

func TestAssertAlternating_RejectsPipelining(t *testing.T) {
	ops := []linetest.Op{
		{Kind: linetest.OpRead, Line: "ready"},
		{Kind: linetest.OpWrite, Line: "startpos"},
		{Kind: linetest.OpFlush},
		{Kind: linetest.OpWrite, Line: "e7e5"},
	}
	ft := &failRecorder{TB: t}
	linetest.AssertAlternating(ft, ops)
	assert.True(t, ft.failed, "pipelined write must be reported")
}

// failRecorder captures Errorf calls without failing the outer test.
type failRecorder struct {
	testing.TB
	failed bool
}

func (f *failRecorder) Helper() {}

func (f *failRecorder) Errorf(string, ...any) { f.failed = true }
