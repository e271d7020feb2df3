package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, float32(1), cfg.Lighting.GetSkyMultiplier())
	assert.Equal(t, uint8(2), cfg.Lighting.GetAmbientLight())
	assert.Equal(t, 64, cfg.Lighting.GetSkyScanHeight())
	assert.Equal(t, float32(256), cfg.Render.GetRenderDistance())
	assert.Equal(t, 6, cfg.Render.GetAOApproxDistance())
	assert.Equal(t, 6144, cfg.Render.GetTransparentMinCapacity())
	assert.Equal(t, [4]uint8{255, 255, 255, 255}, cfg.Render.GetChunkTint())
	assert.Equal(t, 4, cfg.World.GetRadius())
	assert.Equal(t, "voxelgine", cfg.Telemetry.GetServiceName())
	assert.Equal(t, "assets/models", cfg.Storage.GetModelsDir())
	assert.Equal(t, 30, cfg.Storage.GetSaveInterval())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	data := `
lighting:
  sky_multiplier: 0.5
  ambient_light: 0
  workers: 3
render:
  render_distance: 128
  chunk_tint: [200, 180, 160]
storage:
  data_dir: /var/lib/voxel
  save_interval: 5
world:
  seed: 99
  radius: 6
server:
  api_port: 9000
telemetry:
  enabled: true
logging:
  level: warn
  components:
    storage: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, float32(0.5), cfg.Lighting.GetSkyMultiplier())
	assert.Equal(t, uint8(0), cfg.Lighting.GetAmbientLight(), "явный ноль не заменяется дефолтом")
	assert.Equal(t, 3, cfg.Lighting.Workers)
	assert.Equal(t, float32(128), cfg.Render.GetRenderDistance())
	assert.Equal(t, [4]uint8{200, 180, 160, 255}, cfg.Render.GetChunkTint())
	assert.Equal(t, "/var/lib/voxel/world.gz", cfg.Storage.GetStreamPath())
	assert.Equal(t, 5, cfg.Storage.GetSaveInterval())
	assert.Equal(t, int64(99), cfg.World.Seed)
	assert.Equal(t, 6, cfg.World.GetRadius())
	assert.Equal(t, 4, cfg.World.GetHeight())
	assert.Equal(t, 9000, cfg.Server.GetAPIPort())
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "warn", cfg.Logging.GetLevel())
	assert.Equal(t, map[string]string{"storage": "debug"}, cfg.Logging.Components)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  seed: 5\n"), 0o644))
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, int64(5), cfg.World.Seed)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lighting: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}

	t.Setenv("VOXEL_API_PORT", "")
	assert.Equal(t, 8090, s.GetAPIPort())

	t.Setenv("VOXEL_API_PORT", "9100")
	assert.Equal(t, 9100, s.GetAPIPort())

	t.Setenv("VOXEL_METRICS_PORT", "не число")
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.APIPort = 7000
	assert.Equal(t, 7000, s.GetAPIPort(), "конфиг важнее окружения")
}
