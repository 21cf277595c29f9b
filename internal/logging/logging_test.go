package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	log := slog.New(h)
	log.Debug("hidden")
	log.Info("posted", "correlation_id", "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "posted", rec["msg"])
	assert.Equal(t, "abc", rec["correlation_id"])

	_, err = NewHandler(&buf, slog.LevelInfo, "xml")
	assert.Error(t, err)
}

func TestSetupWriter(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "warn", "console"))
	slog.Info("dropped")
	slog.Warn("kept", "asset_id", "a1")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "asset_id=a1")

	assert.Error(t, SetupWriter(&buf, "loud", "console"))
}
