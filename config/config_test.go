package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsMatchPackageDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cd := clouds.DefaultConfig()
	assert.Equal(t, cd.PoolSize, cfg.Clouds.PoolSize)
	assert.Equal(t, cd.MeshLevel, cfg.Clouds.MeshLevel)
	assert.Equal(t, cd.MeshNoise, cfg.Clouds.MeshNoise)
	assert.InDelta(t, cd.RespawnRadius, cfg.Clouds.RespawnRadius, 1e-6)
	assert.InDelta(t, cd.FadeDuration, cfg.Clouds.FadeDuration, 1e-6)
	assert.InDelta(t, cd.LifetimeRange.Min, cfg.Clouds.LifetimeRange.Min, 1e-6)
	assert.InDelta(t, cd.LifetimeRange.Max, cfg.Clouds.LifetimeRange.Max, 1e-6)
	assert.InDelta(t, cd.SpawnY.Min, cfg.Clouds.SpawnY.Min, 1e-6)
	assert.InDelta(t, cd.FloatAmountRange.Max, cfg.Clouds.FloatAmountRange.Max, 1e-6)

	pd := particles.DefaultConfig()
	assert.Equal(t, pd.Capacity, cfg.Particles.Capacity)
	assert.Equal(t, pd.Seed, cfg.Particles.Seed)
	assert.InDelta(t, pd.SpawnInterval, cfg.Particles.SpawnInterval, 1e-6)
	assert.InDelta(t, pd.TTLRange.Max, cfg.Particles.TTLRange.Max, 1e-6)
	assert.InDelta(t, pd.StartColor[3], cfg.Particles.StartColor[3], 1e-6)

	assert.Equal(t, BackendCPU, cfg.Sim.Backend)
	assert.Equal(t, 3600, cfg.Derived.Steps)
}

func TestYAMLOverlayKeepsUnsetFields(t *testing.T) {
	path := writeFile(t, "run.yaml", `
clouds:
  pool_size: 50
  respawn_radius: 45
  lifetime_range: {min: 10, max: 12}
particles:
  capacity: 256
sim:
  duration: 2
  dt: 0.1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Clouds.PoolSize)
	assert.Equal(t, float32(45), cfg.Clouds.RespawnRadius)
	assert.Equal(t, core.R(10, 12), cfg.Clouds.LifetimeRange)
	assert.Equal(t, 256, cfg.Particles.Capacity)
	assert.Equal(t, 20, cfg.Derived.Steps)

	assert.InDelta(t, 0.2, cfg.Particles.SpawnInterval, 1e-6, "untouched field keeps its default")
	assert.Equal(t, 2, cfg.Clouds.MeshLevel)
}

func TestTOMLOverlay(t *testing.T) {
	path := writeFile(t, "run.toml", `
[sim]
backend = "opengl"

[particles]
capacity = 128
spawn_interval = 0.05

[clouds.speed_range]
min = 0.5
max = 0.6
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendOpenGL, cfg.Sim.Backend)
	assert.Equal(t, 128, cfg.Particles.Capacity)
	assert.InDelta(t, 0.05, cfg.Particles.SpawnInterval, 1e-6)
	assert.Equal(t, core.R(0.5, 0.6), cfg.Clouds.SpeedRange)
	assert.Equal(t, 20, cfg.Clouds.PoolSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "clouds: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.toml", "[clouds\npool_size = 1"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero pool":     func(c *Config) { c.Clouds.PoolSize = 0 },
		"zero capacity": func(c *Config) { c.Particles.Capacity = 0 },
		"zero interval": func(c *Config) { c.Particles.SpawnInterval = 0 },
		"zero dt":       func(c *Config) { c.Sim.Dt = 0 },
		"backend":       func(c *Config) { c.Sim.Backend = "vulkan" },
		"view":          func(c *Config) { c.View.Width = 0 },
		"telemetry":     func(c *Config) { c.Telemetry.Every = -1 },
	} {
		cfg, err := Load("")
		require.NoError(t, err)
		mutate(cfg)
		err = cfg.Validate()
		assert.True(t, errors.Is(err, core.ErrInvalidConfig), "%s: got %v", name, err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Clouds.PoolSize = 33
	cfg.Particles.StartColor = [4]float32{0.1, 0.2, 0.3, 0.4}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)

	tomlPath := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, cfg.WriteTOML(tomlPath))
	back, err = Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, 33, back.Clouds.PoolSize)
}

func TestLight(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	l := cfg.Light()
	assert.InDelta(t, -1, l.Direction.Y(), 1e-6)
	assert.InDelta(t, 1, l.Intensity, 1e-6)
}

func TestApplySeed(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	before := cfg.Particles.Seed

	cfg.ApplySeed(0)
	assert.Equal(t, before, cfg.Particles.Seed)

	cfg.ApplySeed(42)
	assert.Equal(t, int64(42), cfg.Sim.Seed)
	assert.Equal(t, int64(42), cfg.Clouds.Seed)
	assert.Equal(t, uint32(42), cfg.Particles.Seed)

	path := writeFile(t, "seeded.yaml", "sim:\n  seed: 9\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), cfg.Particles.Seed)
}

func TestFinalizeRecomputesSteps(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Sim.Duration = 1
	cfg.Sim.Dt = 0.25
	require.NoError(t, cfg.Finalize())
	assert.Equal(t, 4, cfg.Derived.Steps)

	cfg.Sim.Backend = "metal"
	assert.ErrorIs(t, cfg.Finalize(), core.ErrInvalidConfig)
}
