package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, float64(1000), cfg.Scoring.DustAmount)
	assert.Equal(t, 48, cfg.Scoring.CollapseWindowHours)
	assert.Equal(t, 8, cfg.Pipeline.WorkerLimit)
	assert.Equal(t, time.Hour, cfg.Cache.SnapshotTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.CardTTL)
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whisperer.yaml")
	doc := `
scoring:
  dust_amount: 500
pipeline:
  worker_limit: 4
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("WHISPERER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	// Overridden values take effect, everything else keeps the default.
	assert.Equal(t, float64(500), cfg.Scoring.DustAmount)
	assert.Equal(t, 4, cfg.Pipeline.WorkerLimit)
	assert.Equal(t, float64(8_000_000), cfg.Scoring.HighFeeThreshold)
}

func TestLoadRejectsInvalidOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whisperer.yaml")
	doc := `
pipeline:
  worker_limit: -1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("WHISPERER_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

func TestValidateFeeOrdering(t *testing.T) {
	cfg := Default()
	cfg.Scoring.LowFeeThreshold = cfg.Scoring.HighFeeThreshold + 1
	require.Error(t, cfg.Validate())
}
