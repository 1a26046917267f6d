// ABOUTME: Tests for logger setup and the color handler
// ABOUTME: Disables color so output can be compared as plain text

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/symbios-live/internal/config"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("connected", "conn_id", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "connected", rec["msg"])
	assert.Equal(t, "abc", rec["conn_id"])
}

func TestColorHandler_Format(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	logger := Setup(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

	logger.With("component", "session").Warn("connect failed", "attempt", 2)

	line := buf.String()
	assert.Contains(t, line, "WRN connect failed component=session attempt=2")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestColorHandler_LevelFilter(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	logger := slog.New(NewColorHandler(&buf, slog.LevelWarn))

	logger.Info("quiet")
	logger.Error("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "ERR loud")
}

func TestColorHandler_Groups(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	logger := slog.New(NewColorHandler(&buf, slog.LevelDebug))

	logger.WithGroup("conn").With("id", "x").Debug("frame", "bytes", 10, slog.Group("step", "index", 4))

	assert.Contains(t, buf.String(), "DBG frame conn.id=x conn.bytes=10 conn.step.index=4")
}
