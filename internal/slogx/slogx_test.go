package slogx

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestChanLoggerSendsLines(t *testing.T) {
	ch := make(chan string, 4)
	NewChanLogger(ch).Info("fetch ok", "ticker", "SPY")
	select {
	case line := <-ch:
		assert.Contains(t, line, `msg="fetch ok"`)
		assert.Contains(t, line, "ticker=SPY")
	case <-time.After(time.Second):
		t.Fatal("no line")
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polybars.log")
	log, closer := New("warn", FileOptions{Path: path, MaxSizeMB: 1})
	log.Info("dropped")
	log.Warn("kept", "year", 2024)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "year=2024")
}
