package clouds

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/mesh"
)

type fakeRenderer struct {
	uploads   int
	begins    int
	ends      int
	released  int
	uploadErr error
	alphas    []float32
	models    []mgl32.Mat4
	mesh      *mesh.Mesh
}

func (r *fakeRenderer) Upload(m *mesh.Mesh) error {
	r.uploads++
	r.mesh = m
	return r.uploadErr
}
func (r *fakeRenderer) Begin(core.Frame) { r.begins++ }
func (r *fakeRenderer) DrawInstance(model mgl32.Mat4, alpha float32) {
	r.models = append(r.models, model)
	r.alphas = append(r.alphas, alpha)
}
func (r *fakeRenderer) End()     { r.ends++ }
func (r *fakeRenderer) Release() { r.released++ }

func newManager(t *testing.T, cfg Config, opts ...Option) *Manager {
	t.Helper()
	m := New(cfg, opts...)
	require.NoError(t, m.Initialize())
	return m
}

func within(t *testing.T, name string, r core.Range, v float32) {
	t.Helper()
	if v < r.Min || v > r.Max {
		t.Errorf("%s = %f outside [%f, %f]", name, v, r.Min, r.Max)
	}
}

func checkSpawnBounds(t *testing.T, cfg Config, c Cloud) {
	t.Helper()
	within(t, "speed", cfg.SpeedRange, c.Speed)
	within(t, "maxLifetime", cfg.LifetimeRange, c.MaxLifetime)
	within(t, "scale.x", cfg.ScaleX, c.Scale.X())
	within(t, "scale.y", cfg.ScaleY, c.Scale.Y())
	within(t, "scale.z", cfg.ScaleZ, c.Scale.Z())
	within(t, "rotationSpeedY", cfg.RotationSpeedRange, c.RotationSpeedY)
	within(t, "floatSpeed", cfg.FloatSpeedRange, c.FloatSpeed)
	within(t, "floatAmount", cfg.FloatAmountRange, c.FloatAmount)
	within(t, "position.x", cfg.SpawnX, c.Position.X())
	within(t, "position.y", cfg.SpawnY, c.Position.Y())
	within(t, "position.z", cfg.SpawnZ, c.Position.Z())
	within(t, "rotationY", core.R(0, 2*math.Pi), c.RotationY)
	assert.Equal(t, float32(0), c.Direction.Y())
	assert.InDelta(t, 1.0, c.Direction.Len(), 1e-5)
}

func TestFadeAlphaBoundaries(t *testing.T) {
	cases := []struct {
		lifetime float32
		phase    FadePhase
		alpha    float32
	}{
		{0, FadeIn, 0},
		{2, FadeIn, 0.5},
		{4, Stable, 1},
		{15, Stable, 1},
		{26, FadeOut, 1},
		{28, FadeOut, 0.5},
		{30, FadeOut, 0},
	}
	for _, c := range cases {
		phase, alpha := FadeAlpha(c.lifetime, 30, DefaultFadeDuration)
		assert.Equal(t, c.phase, phase, "phase at %g", c.lifetime)
		assert.InDelta(t, c.alpha, alpha, 1e-6, "alpha at %g", c.lifetime)
	}
}

func TestFadeAlphaIsContinuous(t *testing.T) {
	for _, maxLifetime := range []float32{30, 25, 6} {
		const step = 0.001
		_, prev := FadeAlpha(0, maxLifetime, DefaultFadeDuration)
		for lt := float32(step); lt <= maxLifetime; lt += step {
			_, a := FadeAlpha(lt, maxLifetime, DefaultFadeDuration)
			if d := float32(math.Abs(float64(a - prev))); d > step/DefaultFadeDuration+1e-4 {
				t.Fatalf("alpha jumps by %f at lifetime %f (max %f)", d, lt, maxLifetime)
			}
			if a < 0 || a > 1 {
				t.Fatalf("alpha %f outside [0,1]", a)
			}
			prev = a
		}
	}
}

func TestInitializeSpawnsPoolWithinBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 50
	m := newManager(t, cfg)

	clouds := m.Clouds()
	require.Len(t, clouds, 50)
	for _, c := range clouds {
		checkSpawnBounds(t, cfg, c)
		assert.Equal(t, float32(0), c.Lifetime)
		assert.Equal(t, float32(0), c.Alpha)
	}
	require.NotNil(t, m.Mesh())
	assert.Equal(t, mesh.VertexCount(cfg.MeshLevel), len(m.Mesh().Vertices))
}

func TestInitializeRejectsInvalidConfig(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.PoolSize = 0 },
		func(c *Config) { c.PoolSize = -3 },
		func(c *Config) { c.FadeDuration = 0 },
		func(c *Config) { c.RespawnRadius = -1 },
		func(c *Config) { c.SpeedRange = core.R(1, 0) },
		func(c *Config) { c.MeshNoise = "perlin" },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		err := New(cfg).Initialize()
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrInvalidConfig), "got %v", err)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	r := &fakeRenderer{}
	m := newManager(t, DefaultConfig(), WithRenderer(r))
	m.Update(1)
	before := m.Clouds()
	meshBefore := m.Mesh()

	require.NoError(t, m.Initialize())
	assert.Equal(t, before, m.Clouds(), "second Initialize must not respawn")
	assert.Same(t, meshBefore, m.Mesh())
	assert.Equal(t, 1, r.uploads, "second Initialize must not recreate GPU resources")
	assert.Same(t, meshBefore, r.mesh)
}

func TestRendererFailureDegradesToNoDraw(t *testing.T) {
	r := &fakeRenderer{uploadErr: errors.New("link failed")}
	m := New(DefaultConfig(), WithRenderer(r))
	err := m.Initialize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDegraded))
	assert.True(t, m.Degraded())

	for i := 0; i < 100; i++ {
		m.Update(0.1)
	}
	assert.Equal(t, 0, m.Draw(core.Frame{}))
	assert.Equal(t, 0, r.begins)
	assert.NotEmpty(t, m.Visible(nil), "simulation keeps running while degraded")

	require.NoError(t, m.Initialize())
	assert.Equal(t, 1, r.uploads, "a degraded manager does not retry")
	assert.True(t, m.Degraded())
}

func TestExpiredCloudRespawnsInPlace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 8
	m := newManager(t, cfg)

	slot := 3
	maxLifetime := m.clouds[slot].MaxLifetime
	const dt = 0.25
	steps := int(maxLifetime/dt) + 2

	respawned := false
	for i := 0; i < steps; i++ {
		prev := m.clouds[slot].Lifetime
		m.Update(dt)
		if m.clouds[slot].Lifetime < prev {
			respawned = true
			break
		}
	}
	require.True(t, respawned, "slot should respawn after %g s", maxLifetime)

	c := m.clouds[slot]
	assert.Equal(t, float32(0), c.Lifetime)
	assert.Equal(t, float32(0), c.Alpha)
	assert.Equal(t, FadeIn, c.FadePhase)
	checkSpawnBounds(t, cfg, c)
	assert.Len(t, m.Clouds(), 8, "pool size is constant")
}

func TestLongRunKeepsInvariants(t *testing.T) {
	cfg := DefaultConfig()
	m := newManager(t, cfg)
	for i := 0; i < 20000; i++ {
		m.Update(1.0 / 60.0)
		if i%500 != 0 {
			continue
		}
		for j, c := range m.clouds {
			if c.Lifetime < 0 || c.Lifetime >= c.MaxLifetime {
				t.Fatalf("slot %d lifetime %f outside [0, %f)", j, c.Lifetime, c.MaxLifetime)
			}
			if core.PlanarLength(c.Position) > cfg.RespawnRadius {
				t.Fatalf("slot %d is beyond the respawn radius", j)
			}
		}
	}
	assert.Len(t, m.Clouds(), cfg.PoolSize)
	assert.Greater(t, m.Stats().Respawns, uint64(0))
}

func TestOutOfRangeCloudRespawns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 1
	m := newManager(t, cfg)

	m.clouds[0].Position = mgl32.Vec3{cfg.RespawnRadius - 0.001, 3, 0}
	m.clouds[0].Direction = mgl32.Vec3{1, 0, 0}
	m.clouds[0].Speed = 1
	m.clouds[0].Lifetime = 10

	m.Update(0.5)

	c := m.clouds[0]
	assert.Equal(t, float32(0), c.Lifetime)
	assert.LessOrEqual(t, core.PlanarLength(c.Position), cfg.RespawnRadius)
	assert.Equal(t, uint64(1), m.Stats().Respawns)
}

func TestHeightIsNotPartOfRespawnRadius(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 1
	m := newManager(t, cfg)

	m.clouds[0].Position = mgl32.Vec3{1, 100, 1}
	m.clouds[0].Lifetime = 10
	m.Update(0.01)
	assert.Greater(t, m.clouds[0].Lifetime, float32(10))
}

func TestUpdateIntegratesMotion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 1
	m := newManager(t, cfg)

	c := &m.clouds[0]
	c.Position = mgl32.Vec3{0, 3, 0}
	c.Direction = mgl32.Vec3{0.6, 0, 0.8}
	c.Speed = 0.2
	c.RotationY = 1
	c.RotationSpeedY = 0.02
	c.FloatOffset = 0
	c.FloatSpeed = 1
	c.FloatAmount = 0.1
	c.Lifetime = 10
	c.MaxLifetime = 30

	const dt = 0.5
	m.Update(dt)

	got := m.clouds[0]
	assert.InDelta(t, 0.6*0.2*dt, got.Position.X(), 1e-6)
	assert.InDelta(t, 0.8*0.2*dt, got.Position.Z(), 1e-6)
	assert.InDelta(t, 1+0.02*dt, got.RotationY, 1e-6)
	assert.InDelta(t, dt, got.FloatOffset, 1e-6)
	// Rate-like bob: sin(offset) * amount * dt added to height.
	assert.InDelta(t, 3+math.Sin(dt)*0.1*dt, got.Position.Y(), 1e-5)
	assert.Equal(t, Stable, got.FadePhase)
	assert.Equal(t, float32(1), got.Alpha)
}

func TestNegativeDeltaIsClamped(t *testing.T) {
	m := newManager(t, DefaultConfig())
	m.Update(2)
	before := m.Clouds()
	m.Update(-5)
	assert.Equal(t, before, m.Clouds())
	assert.Equal(t, uint64(1), m.Stats().ClampedDts)
}

func TestNonFiniteDeltaIsClamped(t *testing.T) {
	m := newManager(t, DefaultConfig())
	m.Update(2)
	before := m.Clouds()

	for _, dt := range []float32{float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		m.Update(dt)
	}
	assert.Equal(t, before, m.Clouds())
	assert.Equal(t, uint64(3), m.Stats().ClampedDts)

	m.Update(1)
	for i, c := range m.Clouds() {
		assert.False(t, math.IsNaN(float64(c.Lifetime)), "cloud %d", i)
		for _, v := range c.Position {
			assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "cloud %d", i)
		}
	}
}

func TestMeshNoiseIndependentOfSpawnStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MeshNoise = NoiseUniform
	m := newManager(t, cfg)

	// the spawn source is seeded with cfg.Seed; the mesh must not replay it
	sameStream, err := mesh.Build(cfg.MeshLevel, mesh.NewUniformNoise(cfg.Seed, cfg.RadiusRange))
	require.NoError(t, err)
	assert.NotEqual(t, sameStream.Vertices, m.Mesh().Vertices)

	salted, err := mesh.Build(cfg.MeshLevel, mesh.NewUniformNoise(cfg.meshSeed(), cfg.RadiusRange))
	require.NoError(t, err)
	assert.Equal(t, salted.Vertices, m.Mesh().Vertices)
	assert.NotEqual(t, cfg.Seed, cfg.meshSeed())
}

func TestDrawOnlyVisibleClouds(t *testing.T) {
	r := &fakeRenderer{}
	cfg := DefaultConfig()
	cfg.PoolSize = 4
	m := newManager(t, cfg, WithRenderer(r))

	m.clouds[0].Alpha = 0
	m.clouds[1].Alpha = 0.01
	m.clouds[2].Alpha = 0.5
	m.clouds[3].Alpha = 1

	n := m.Draw(core.Frame{})
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, r.begins)
	assert.Equal(t, 1, r.ends)
	assert.Equal(t, []float32{0.5, 1}, r.alphas)
	assert.Equal(t, m.clouds[2].Transform().ObjectToWorld(), r.models[0])

	vis := m.Visible(nil)
	require.Len(t, vis, 2)
	assert.Equal(t, 2, vis[0].Slot)
	assert.Equal(t, 3, vis[1].Slot)
	assert.Equal(t, 2, m.Stats().LastDrawn)

	m.Release()
	assert.Equal(t, 1, r.released)
	assert.Equal(t, 0, m.Draw(core.Frame{}))
}

func TestFadePhaseString(t *testing.T) {
	assert.Equal(t, "fade-in", FadeIn.String())
	assert.Equal(t, "stable", Stable.String())
	assert.Equal(t, "fade-out", FadeOut.String())
}
