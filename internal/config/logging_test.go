package config_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nearconnect/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected config.LogLevel
	}{
		{"off", config.LogLevelOff},
		{"NONE", config.LogLevelOff},
		{"error", config.LogLevelError},
		{"Info", config.LogLevelInfo},
		{"  debug  ", config.LogLevelDebug},
		{"warn", config.LogLevelError},
		{"", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "off", config.LogLevelOff.String())
	assert.Equal(t, "error", config.LogLevelError.String())
	assert.Equal(t, "info", config.LogLevelInfo.String())
	assert.Equal(t, "debug", config.LogLevelDebug.String())
	assert.Equal(t, "error", config.LogLevel(99).String())
}

func TestWriterLogger_levels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := config.NewWriterLogger(config.LogLevelInfo, &buf)

	logger.Debug("hidden %d", 1)
	logger.Info("connected %s", "bob.near")
	logger.Error("store failed: %v", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] connected bob.near")
	assert.Contains(t, out, "[ERROR] store failed: boom")

	logger.SetLevel(config.LogLevelOff)
	logger.Error("silenced")
	assert.NotContains(t, buf.String(), "silenced")
	assert.Equal(t, config.LogLevelOff, logger.Level())
}

func TestLogger_file(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "nearconnect.log")

	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	logger.Debug("restore %s", "ok")
	_, _ = fmt.Fprint(logger.Writer(config.LogLevelError), "  from writer \n")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[DEBUG] restore ok")
	assert.Contains(t, lines[1], "[ERROR] from writer")

	// Writes after Close are dropped.
	logger.Error("after close")
}

func TestNullLogger(t *testing.T) {
	t.Parallel()
	logger := config.NullLogger()
	logger.Error("nothing")
	require.NoError(t, logger.Close())

	var nilLogger *config.Logger
	nilLogger.Info("nil receivers are ignored")
}

func TestLogger_Named(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	root := config.NewWriterLogger(config.LogLevelInfo, &buf)
	relay := root.Named("relay")
	client := relay.Named("client")

	relay.Info("dialing %s", "wss://relay.example")
	client.Debug("hidden")
	client.Error("handshake failed")
	root.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[INFO] relay: dialing wss://relay.example")
	assert.Contains(t, lines[1], "[ERROR] relay.client: handshake failed")
	assert.True(t, strings.HasSuffix(lines[2], "[INFO] plain"))

	relay.SetLevel(config.LogLevelDebug)
	assert.Equal(t, config.LogLevelDebug, root.Level())
	require.NoError(t, client.Close())

	var nilLogger *config.Logger
	assert.Nil(t, nilLogger.Named("x"))
}
