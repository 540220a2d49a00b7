package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Detection.Interval)
	assert.Equal(t, 5*time.Second, cfg.Detection.Timeout)
	assert.Equal(t, 0.35, cfg.Match.Threshold)
	assert.Equal(t, 0.5, cfg.Match.TextWeight)
	assert.Equal(t, 5, cfg.Recovery.NoMatchStreak)
	assert.Equal(t, 10*time.Second, cfg.Recovery.Timeout)
	assert.Equal(t, 3, cfg.Recovery.RetryCeiling)
	assert.False(t, cfg.Guidance.AutoStart)
	assert.Equal(t, "bedrock", cfg.Plan.Source)
	assert.Equal(t, "local", cfg.Snapshot.Backend)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
detection:
  interval: 1s
recovery:
  retry_ceiling: 5
plan:
  source: openai
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Detection.Interval)
	assert.Equal(t, 5, cfg.Recovery.RetryCeiling)
	assert.Equal(t, "openai", cfg.Plan.Source)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Detection.Timeout)
}
