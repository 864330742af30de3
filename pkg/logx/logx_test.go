package logx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerScoping(t *testing.T) {
	logger := NewLogger("orchestrator")
	assert.Equal(t, "orchestrator", logger.GetScope())

	scoped := logger.WithScope("session-abc")
	assert.Equal(t, "session-abc", scoped.GetScope())
	assert.Equal(t, "orchestrator", logger.GetScope(), "original logger unchanged")
}

func TestBufferCapturesEntries(t *testing.T) {
	logger := NewLogger("buffer-test")
	before := time.Now().UTC().Add(-time.Second)

	logger.Info("hello %s", "world")
	logger.Warn("watch out")

	entries := GetRecentLogEntries("buffer-test", before)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello world", entries[0].Message)
	assert.Equal(t, string(LevelInfo), entries[0].Level)
	assert.Equal(t, string(LevelWarn), entries[1].Level)
}

func TestBufferTrimsToMaxSize(t *testing.T) {
	buf := &InMemoryLogBuffer{maxSize: 3}
	for i := 0; i < 5; i++ {
		buf.AddLogEntry(&LogEntry{
			Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			Scope:     "trim",
			Level:     string(LevelInfo),
			Message:   "msg",
		})
	}

	entries := buf.GetLogEntries("trim", time.Time{})
	assert.Len(t, entries, 3)
}

func TestDebugSuppressedByDefault(t *testing.T) {
	SetDebug(false)
	defer SetDebug(false)

	logger := NewLogger("debug-test")
	before := time.Now().UTC().Add(-time.Second)
	logger.Debug("should not appear")

	entries := GetRecentLogEntries("debug-test", before)
	assert.Empty(t, entries)

	SetDebug(true)
	logger.Debug("now visible")
	entries = GetRecentLogEntries("debug-test", before)
	require.Len(t, entries, 1)
	assert.Equal(t, "now visible", entries[0].Message)
}

func TestWrapNilError(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
	assert.Error(t, Wrap(assert.AnError, "context"))
}
