package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel(" Warning "))
	assert.Equal(t, LogLevelError, ParseLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}

func TestServiceLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.WithComponent("arxiv").Info("fetch complete", "count", 3)

	entry := parseLine(t, &buf)
	assert.Equal(t, "fetch complete", entry["msg"])
	assert.Equal(t, "arxiv", entry["component"])
	assert.Equal(t, float64(3), entry["count"])
}

func TestLogToolCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	LogToolCall(logger, "search_arxiv", 50*time.Millisecond, nil)

	entry := parseLine(t, &buf)
	assert.Equal(t, "Tool execution completed", entry["msg"])
	assert.Equal(t, "search_arxiv", entry["tool_name"])
	assert.Equal(t, true, entry["success"])

	buf.Reset()
	LogToolCall(logger, "search_arxiv", 50*time.Millisecond, errors.New("HTTP 503"))

	entry = parseLine(t, &buf)
	assert.Equal(t, "Tool execution failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "HTTP 503", entry["error"])
}

func TestLogLLMCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	LogLLMCall(logger, "gpt-4o-mini", 1200, 2*time.Second, nil)

	entry := parseLine(t, &buf)
	assert.Equal(t, "LLM call completed", entry["msg"])
	assert.Equal(t, "gpt-4o-mini", entry["model"])
	assert.Equal(t, float64(1200), entry["token_count"])

	buf.Reset()
	LogLLMCall(logger, "gpt-4o-mini", 0, time.Second, errors.New("rate limited"))

	entry = parseLine(t, &buf)
	assert.Equal(t, "LLM call failed", entry["msg"])
	assert.Equal(t, "rate limited", entry["error"])
}

func TestLogHelpersWithNoOpLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogToolCall(NoOpLogger{}, "search_arxiv", time.Millisecond, nil)
		LogLLMCall(NoOpLogger{}, "mock", 0, time.Millisecond, errors.New("down"))
	})
}
