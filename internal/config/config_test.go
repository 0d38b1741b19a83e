package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Engine.StorageMode)
	assert.Equal(t, 10, cfg.Engine.Trainer.MinRecords)
	assert.Equal(t, 60, cfg.Engine.Trainer.WindowDays)
	assert.False(t, cfg.Engine.Trainer.CountDelayedAsMiss)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
engine:
  storage_mode: postgres
  trainer:
    min_records: 25
`)
	require.NoError(t, os.WriteFile(path, data, 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Engine.StorageMode)
	assert.Equal(t, 25, cfg.Engine.Trainer.MinRecords)
	// Untouched fields keep their defaults.
	assert.Equal(t, 60, cfg.Engine.DelayToleranceMinutes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CAPSULE_PORT", "7070")
	t.Setenv("STORAGE_MODE", "postgres")
	t.Setenv("CAPSULE_TRAINER_MIN_RECORDS", "15")
	t.Setenv("CAPSULE_TRAINER_COUNT_DELAYED_AS_MISS", "true")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Engine.StorageMode)
	assert.Equal(t, 15, cfg.Engine.Trainer.MinRecords)
	assert.True(t, cfg.Engine.Trainer.CountDelayedAsMiss)
}
