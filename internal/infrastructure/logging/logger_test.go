package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshCena/web-command-center/internal/infrastructure/config"
)

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LogConfig{Level: "debug", Development: true})
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.Development)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)

	cfg = FromConfig(config.LogConfig{})
	assert.Equal(t, "info", cfg.Level)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(Config{Level: level})
		require.NoError(t, err, level)
		assert.NotNil(t, logger.Logger)
	}
}

func TestSessionLoggerFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Session("sess_01ABC").Info("Command started")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "session", entry["logger"])
	assert.Equal(t, "sess_01ABC", entry["session_id"])
	assert.Equal(t, "Command started", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestDefaults(t *testing.T) {
	assert.NotNil(t, NewDefault().Logger)
	assert.NotNil(t, NewNop().Logger)
}
