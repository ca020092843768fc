package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	New(&buf, "info", "text").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	New(&buf, "warn", "json").Info("dropped")
	assert.Empty(t, buf.String())
}
