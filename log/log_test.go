package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	require.Equal(t, LevelTrace, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleGating(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, false)))
	defer SetDefault(NewLogger(DiscardHandler()))

	DisableModule(ScMonitoring)
	Trace(ScMonitoring, "should not appear")
	require.Empty(t, buf.String())

	EnableModule(ScMonitoring)
	Trace(ScMonitoring, "sc commitment leaf", "pos", 3)
	out := buf.String()
	require.True(t, strings.Contains(out, "sc commitment leaf"))
	require.True(t, strings.Contains(out, "pos=3"))
	DisableModule(ScMonitoring)
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, false)).With("height", 10)
	l.Info(NodeMonitoring, "connected block")
	require.Contains(t, buf.String(), "height=10")
}
