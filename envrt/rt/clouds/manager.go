package clouds

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/mesh"
)

// Manager owns a fixed pool of drifting, fading clouds and the mesh they share.
type Manager struct {
	cfg      Config
	log      core.Logger
	rng      *rand.Rand
	renderer Renderer

	clouds []Cloud
	mesh   *mesh.Mesh

	gpuReady bool
	degraded bool

	respawns   uint64
	lastDrawn  int
	clampedDts uint64
}

type Option func(*Manager)

func WithLogger(l core.Logger) Option {
	return func(m *Manager) { m.log = core.OrNop(l) }
}

// WithRenderer attaches the GPU side. Without one the manager only simulates.
func WithRenderer(r Renderer) Option {
	return func(m *Manager) { m.renderer = r }
}

// WithRand replaces the seeded source derived from Config.Seed.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rng = r }
}

func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg: cfg,
		log: core.NewNopLogger(),
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Config() Config { return m.cfg }

// Initialize allocates and spawns the pool, builds the shared mesh and, when a renderer
// is attached, uploads it. Repeated calls keep the existing pool and GPU resources.
// A renderer failure is logged and leaves the manager simulating without drawing.
func (m *Manager) Initialize() error {
	if err := m.cfg.Validate(); err != nil {
		m.log.Errorf("clouds: %v", err)
		return err
	}

	if len(m.clouds) == 0 {
		m.clouds = make([]Cloud, m.cfg.PoolSize)
		for i := range m.clouds {
			m.spawn(i)
		}
		m.respawns = 0
	}

	if m.mesh == nil {
		built, err := mesh.Build(m.cfg.MeshLevel, m.cfg.noise())
		if err != nil {
			return fmt.Errorf("failed to build cloud mesh: %w", err)
		}
		m.mesh = built
		m.log.Debugf("clouds: mesh level %d, %d vertices, %d triangles",
			m.cfg.MeshLevel, len(built.Vertices), built.TriangleCount())
	}

	if m.renderer != nil && !m.gpuReady && !m.degraded {
		if err := m.renderer.Upload(m.mesh); err != nil {
			m.degraded = true
			m.log.Errorf("clouds: renderer setup failed, drawing disabled: %v", err)
			return fmt.Errorf("%w: %w", core.ErrDegraded, err)
		}
		m.gpuReady = true
	}
	return nil
}

func (m *Manager) spawn(i int) {
	cfg := &m.cfg
	c := &m.clouds[i]

	c.Position = mgl32.Vec3{
		m.draw(cfg.SpawnX),
		m.draw(cfg.SpawnY),
		m.draw(cfg.SpawnZ),
	}
	c.Direction = m.heading()
	c.Speed = m.draw(cfg.SpeedRange)
	c.Lifetime = 0
	c.MaxLifetime = m.draw(cfg.LifetimeRange)
	c.FadePhase = FadeIn
	c.Alpha = 0
	c.Scale = mgl32.Vec3{
		m.draw(cfg.ScaleX),
		m.draw(cfg.ScaleY),
		m.draw(cfg.ScaleZ),
	}
	c.RotationY = m.rng.Float32() * 2 * math.Pi
	c.RotationSpeedY = m.draw(cfg.RotationSpeedRange)
	c.FloatOffset = 0
	c.FloatSpeed = m.draw(cfg.FloatSpeedRange)
	c.FloatAmount = m.draw(cfg.FloatAmountRange)

	m.respawns++
}

func (m *Manager) draw(r core.Range) float32 {
	return r.Lerp(m.rng.Float32())
}

// heading draws a unit direction in the horizontal plane.
func (m *Manager) heading() mgl32.Vec3 {
	for attempt := 0; attempt < 16; attempt++ {
		d := mgl32.Vec3{m.rng.Float32()*2 - 1, 0, m.rng.Float32()*2 - 1}
		if l := d.Len(); l > 1e-4 {
			return d.Mul(1 / l)
		}
	}
	return mgl32.Vec3{1, 0, 0}
}

// Update advances every cloud by deltaTime seconds. Expired or out-of-range clouds are
// respawned in their slot; the pool size never changes.
func (m *Manager) Update(deltaTime float32) {
	if !core.ValidDelta(deltaTime) {
		m.clampedDts++
		m.log.Warnf("clouds: invalid delta time %g clamped to 0", deltaTime)
		deltaTime = 0
	}

	for i := range m.clouds {
		c := &m.clouds[i]
		c.Lifetime += deltaTime

		if c.Lifetime >= c.MaxLifetime {
			m.spawn(i)
			continue
		}
		c.FadePhase, c.Alpha = FadeAlpha(c.Lifetime, c.MaxLifetime, m.cfg.FadeDuration)

		horizontal := mgl32.Vec3{c.Direction.X(), 0, c.Direction.Z()}
		c.Position = c.Position.Add(horizontal.Mul(c.Speed * deltaTime))
		c.RotationY += c.RotationSpeedY * deltaTime

		// The bob is applied as a rate, so height drifts instead of oscillating about a
		// baseline. Kept as is pending product confirmation.
		c.FloatOffset += c.FloatSpeed * deltaTime
		floatY := float32(math.Sin(float64(c.FloatOffset))) * c.FloatAmount
		c.Position[1] += floatY * deltaTime

		if core.PlanarLength(c.Position) > m.cfg.RespawnRadius {
			m.spawn(i)
		}
	}
}

// Draw issues one draw per cloud above the visibility threshold and returns the count.
// Clouds are drawn in pool order, not sorted by depth.
func (m *Manager) Draw(frame core.Frame) int {
	if !m.gpuReady || m.renderer == nil || len(m.clouds) == 0 {
		return 0
	}

	m.renderer.Begin(frame)
	drawn := 0
	for i := range m.clouds {
		c := &m.clouds[i]
		if c.Alpha <= m.cfg.VisibilityThreshold {
			continue
		}
		m.renderer.DrawInstance(c.Transform().ObjectToWorld(), c.Alpha)
		drawn++
	}
	m.renderer.End()

	m.lastDrawn = drawn
	return drawn
}

// Visible appends the visible clouds to dst.
func (m *Manager) Visible(dst []Instance) []Instance {
	for i := range m.clouds {
		c := &m.clouds[i]
		if c.Alpha <= m.cfg.VisibilityThreshold {
			continue
		}
		tr := c.Transform()
		dst = append(dst, Instance{
			Slot:      i,
			Transform: tr,
			Model:     tr.ObjectToWorld(),
			Alpha:     c.Alpha,
		})
	}
	return dst
}

// Clouds returns a copy of the pool.
func (m *Manager) Clouds() []Cloud {
	return append([]Cloud(nil), m.clouds...)
}

func (m *Manager) Mesh() *mesh.Mesh { return m.mesh }

func (m *Manager) Degraded() bool { return m.degraded }

type Stats struct {
	PoolSize   int
	Visible    int
	LastDrawn  int
	Respawns   uint64
	ClampedDts uint64
}

func (m *Manager) Stats() Stats {
	visible := 0
	for i := range m.clouds {
		if m.clouds[i].Alpha > m.cfg.VisibilityThreshold {
			visible++
		}
	}
	return Stats{
		PoolSize:   len(m.clouds),
		Visible:    visible,
		LastDrawn:  m.lastDrawn,
		Respawns:   m.respawns,
		ClampedDts: m.clampedDts,
	}
}

// Release frees the renderer resources.
func (m *Manager) Release() {
	if m.renderer != nil && m.gpuReady {
		m.renderer.Release()
	}
	m.gpuReady = false
}
