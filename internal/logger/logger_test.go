package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "promptpad.log")

	log, err := NewLogger(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.WithComponent("storage").Info("snapshot written", zap.Int("prompts", 3))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "snapshot written", entry["msg"])
	assert.Equal(t, "storage", entry["component"])
	assert.EqualValues(t, 3, entry["prompts"])
}

func TestLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	log, err := NewLogger(Config{Level: "warn", Format: "text", OutputPath: path})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "WARN")
	assert.Contains(t, string(data), "shown")
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	log, err := NewLogger(Config{Level: "loud", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.WithError(assert.AnError).Error("ignored")
	assert.NotNil(t, log.Zap())
}
