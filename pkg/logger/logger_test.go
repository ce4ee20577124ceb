package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Format: "json", Output: "console", Console: &buf}))

	WithField("intf", "fc1/1").Warn("interface missing")
	assert.Contains(t, buf.String(), `"intf":"fc1/1"`)
	assert.Contains(t, buf.String(), `"level":"warning"`)
}

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(Config{Level: "info", Output: "file", FilePath: path, MaxSize: 1}))
	Info("hello")
	assert.FileExists(t, path)
}

func TestParseOutputLines(t *testing.T) {
	short := ParseOutputLines("a\nb\n", 5)
	assert.Equal(t, []string{"a", "b"}, short.HeadLines)
	assert.Empty(t, short.TailLines)
	assert.Equal(t, 2, short.Total)

	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, strings.Repeat("x", i+1))
	}
	long := ParseOutputLines(strings.Join(lines, "\r\n"), 5)
	assert.Equal(t, lines[:5], long.HeadLines)
	assert.Equal(t, lines[7:], long.TailLines)
	assert.Contains(t, FormatOutputLines(long), "tail-lines: [")

	assert.Equal(t, 0, ParseOutputLines("", 5).Total)
}

func TestDebugCommandOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "info", Output: "console", Console: &buf}))
	DebugCommandOutput("show version", "line1\nline2", 3)
	assert.Empty(t, buf.String())

	require.NoError(t, Init(Config{Level: "debug", Output: "console", Console: &buf}))
	DebugCommandOutput("show version", "line1\nline2", 3)
	assert.Contains(t, buf.String(), "head-lines: [line1 ⟩ line2]")
}
