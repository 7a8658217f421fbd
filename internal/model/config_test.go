package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Backend.Driver)
	assert.Equal(t, 5, cfg.Alert.PollIntervalSec)
	assert.Equal(t, LevelWarning, cfg.Alert.Threshold())
	assert.Equal(t, 4000, cfg.Alert.WarningIntervalMs)
	assert.Equal(t, 3000, cfg.Alert.EmergencyIntervalMs)
	assert.Equal(t, 256, cfg.Chat.DedupCapacity)
	assert.True(t, cfg.Alert.Sound)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
backend:
  driver: postgres
alert:
  notify_threshold: rojo
  poll_interval_sec: 0
session:
  viewer_id: u-1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Backend.Driver)
	assert.Equal(t, LevelEmergency, cfg.Alert.Threshold())
	assert.Equal(t, 5, cfg.Alert.PollIntervalSec, "non-positive interval falls back")
	assert.Equal(t, 3000, cfg.Alert.EmergencyIntervalMs)
	assert.Equal(t, "u-1", cfg.Session.ViewerID)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  driver: mysql\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Session.ViewerID = "u-42"
	cfg.Alert.NotifyThreshold = "emergency"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "u-42", loaded.Session.ViewerID)
	assert.Equal(t, LevelEmergency, loaded.Alert.Threshold())
}

func TestThresholdFallsBack(t *testing.T) {
	assert.Equal(t, LevelWarning, AlertConfig{NotifyThreshold: "verde"}.Threshold())
	assert.Equal(t, LevelWarning, AlertConfig{NotifyThreshold: "??"}.Threshold())
	assert.Equal(t, LevelWatch, AlertConfig{NotifyThreshold: "amarillo"}.Threshold())
}

func TestDurationsFromConfig(t *testing.T) {
	cfg := DefaultAppConfig()

	warning, emergency, leadIn := cfg.Alert.CueIntervals()
	assert.Equal(t, 4*time.Second, warning)
	assert.Equal(t, 3*time.Second, emergency)
	assert.Equal(t, time.Second, leadIn)
	assert.Equal(t, 5*time.Second, cfg.Alert.AlertPollInterval())
	assert.Equal(t, 3*time.Second, cfg.Chat.MessagePollInterval())
}
