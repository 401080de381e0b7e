package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOptions(Options{Service: "nirvd", Env: "test", Level: "debug", Output: &buf})
	logger.Debug("swap settled", "op", "swap")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "nirvd", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "DEBUG", line["severity"])
	require.Equal(t, "swap settled", line["message"])
	require.Equal(t, "swap", line["op"])
	require.Contains(t, line, "timestamp")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestInfoFilteredBelowWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithOptions(Options{Service: "nirvd", Level: "warn", Output: &buf})
	logger.Info("ignored")
	require.Zero(t, buf.Len())
}
