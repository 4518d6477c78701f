package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Registry.Backend)
	assert.Equal(t, "voxelcore", cfg.Telemetry.ServiceName)

	lo, hi, err := cfg.Registry.IDRange()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), lo)
	assert.Equal(t, uint16(65535), hi)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxel.yaml")
	yamlText := `
registry:
  backend: badger
  world_root: /srv/world
  min_id: 16
  max_id: 4095
  mongo:
    database: test
    timeout: 2s
logging:
  level: debug
  file: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0o644))

	t.Setenv("VOXEL_WORLD_ROOT", "")
	t.Setenv("VOXEL_REGISTRY_BACKEND", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Registry.GetBackend())
	assert.Equal(t, "/srv/world", cfg.Registry.GetWorldRoot())
	assert.Equal(t, "test", cfg.Registry.Mongo.Database)
	assert.Equal(t, "materials", cfg.Registry.Mongo.Collection, "незаданные поля берутся из Default")
	assert.Equal(t, 2*time.Second, cfg.Registry.Mongo.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.File)

	lo, hi, err := cfg.Registry.IDRange()
	require.NoError(t, err)
	assert.Equal(t, uint16(16), lo)
	assert.Equal(t, uint16(4095), hi)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOXEL_WORLD_ROOT", "/tmp/other")
	t.Setenv("VOXEL_REGISTRY_BACKEND", BackendMemory)

	cfg := Default()
	assert.Equal(t, "/tmp/other", cfg.Registry.GetWorldRoot())
	assert.Equal(t, BackendMemory, cfg.Registry.GetBackend())
}

func TestBadIDRange(t *testing.T) {
	r := RegistryConfig{MinID: 500, MaxID: 10}
	_, _, err := r.IDRange()
	assert.Error(t, err)

	r = RegistryConfig{MinID: 1, MaxID: 70000}
	_, _, err = r.IDRange()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
