package particles

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

// accumulatorEpsilon, in intervals, absorbs float32 rounding of the frame deltas
// when the accumulated time lands on a whole number of intervals.
const accumulatorEpsilon = 1e-6

// BufferRef names the buffer a renderer may read this frame.
type BufferRef struct {
	Index int
	Live  int
	// Valid is false when the last step failed or the simulator is degraded.
	Valid bool
}

// Simulator drives a fixed-capacity particle pool through a Kernel, alternating
// the two kernel buffers between the read and write roles every step.
type Simulator struct {
	cfg    Config
	kernel Kernel
	log    core.Logger

	read        int
	nParticles  int
	accumulator float64
	frame       uint32

	initialized bool
	degraded    bool
	skipped     bool

	steps         uint64
	skippedFrames uint64
	clampedDts    uint64
}

type Option func(*Simulator)

func WithLogger(l core.Logger) Option {
	return func(s *Simulator) { s.log = core.OrNop(l) }
}

func New(cfg Config, kernel Kernel, opts ...Option) *Simulator {
	s := &Simulator{
		cfg:    cfg,
		kernel: kernel,
		log:    core.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Config() Config { return s.cfg }

// Initialize allocates both buffers. A kernel failure is logged and turns Step into
// a no-op. Further calls after a successful one do nothing.
func (s *Simulator) Initialize() error {
	if s.initialized {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		s.log.Errorf("particles: %v", err)
		return err
	}
	if s.kernel == nil {
		return fmt.Errorf("%w: particle simulator has no kernel", core.ErrInvalidConfig)
	}

	s.read = 0
	s.nParticles = 0
	s.accumulator = 0
	s.frame = 0
	s.initialized = true

	if err := s.kernel.Allocate(s.cfg.Capacity); err != nil {
		s.degraded = true
		s.log.Errorf("particles: kernel setup failed, simulation disabled: %v", err)
		return fmt.Errorf("%w: %w", core.ErrDegraded, err)
	}
	s.log.Debugf("particles: %d slots, spawn every %gs", s.cfg.Capacity, s.cfg.SpawnInterval)
	return nil
}

func (s *Simulator) clamp(deltaTime float32) float32 {
	if !core.ValidDelta(deltaTime) {
		s.clampedDts++
		s.log.Warnf("particles: invalid delta time %g clamped to 0", deltaTime)
		return 0
	}
	return deltaTime
}

// UpdateCounters converts elapsed time into whole spawn events. The live count only
// grows and never passes capacity; the sub-interval remainder carries over.
func (s *Simulator) UpdateCounters(deltaTime float32) {
	if !s.initialized {
		return
	}
	s.advance(s.clamp(deltaTime))
}

func (s *Simulator) advance(deltaTime float32) {
	interval := float64(s.cfg.SpawnInterval)
	s.accumulator += float64(deltaTime)
	spawns := math.Floor(s.accumulator/interval + accumulatorEpsilon)
	if spawns <= 0 {
		return
	}
	s.accumulator = max(s.accumulator-spawns*interval, 0)

	if room := float64(s.cfg.Capacity - s.nParticles); spawns > room {
		spawns = room
	}
	s.nParticles += int(spawns)
}

// Step runs one update pass from the read buffer into the other one and, once the
// kernel reports completion, makes the freshly written buffer current.
func (s *Simulator) Step(deltaTime float32, emitterPos, emitterDir mgl32.Vec3) error {
	if !s.initialized {
		return core.ErrNotInitialized
	}
	if s.degraded {
		return nil
	}
	return s.step(s.clamp(deltaTime), emitterPos, emitterDir)
}

func (s *Simulator) step(deltaTime float32, emitterPos, emitterDir mgl32.Vec3) error {
	u := s.uniforms(deltaTime, emitterPos, emitterDir)
	write := 1 - s.read
	if err := s.kernel.Dispatch(s.read, write, u); err != nil {
		s.skipped = true
		s.skippedFrames++
		s.log.Errorf("particles: update pass failed, skipping frame: %v", err)
		return fmt.Errorf("failed to dispatch particle update: %w", err)
	}

	s.read = write
	s.skipped = false
	s.frame++
	s.steps++
	return nil
}

// Update is UpdateCounters followed by Step.
func (s *Simulator) Update(deltaTime float32, emitterPos, emitterDir mgl32.Vec3) error {
	if !s.initialized {
		return core.ErrNotInitialized
	}
	deltaTime = s.clamp(deltaTime)
	s.advance(deltaTime)
	if s.degraded {
		return nil
	}
	return s.step(deltaTime, emitterPos, emitterDir)
}

func (s *Simulator) uniforms(dt float32, pos, dir mgl32.Vec3) Uniforms {
	c := &s.cfg
	return Uniforms{
		EmitterPos: pos,
		DeltaTime:  dt,
		EmitterDir: dir,
		NParticles: uint32(s.nParticles),
		StartColor: mgl32.Vec4(c.StartColor),
		TTLMin:     c.TTLRange.Min,
		TTLMax:     c.TTLRange.Max,
		SpeedMin:   c.SpeedRange.Min,
		SpeedMax:   c.SpeedRange.Max,
		Spread:     c.Spread,
		StartSize:  c.StartSize,
		SizeGrowth: c.SizeGrowth,
		SpinMin:    c.SpinRange.Min,
		SpinMax:    c.SpinRange.Max,
		Seed:       c.Seed,
		Frame:      s.frame,
		Capacity:   uint32(c.Capacity),
	}
}

// CurrentBuffer is the buffer most recently written, safe to read until the next Step.
func (s *Simulator) CurrentBuffer() BufferRef {
	return BufferRef{
		Index: s.read,
		Live:  s.nParticles,
		Valid: s.initialized && !s.degraded && !s.skipped,
	}
}

// Snapshot appends the current buffer to dst.
func (s *Simulator) Snapshot(dst []Particle) ([]Particle, error) {
	if !s.initialized || s.degraded {
		return dst, core.ErrNotInitialized
	}
	return s.kernel.Snapshot(s.read, dst)
}

func (s *Simulator) NParticles() int { return s.nParticles }

func (s *Simulator) Capacity() int { return s.cfg.Capacity }

func (s *Simulator) Accumulator() float64 { return s.accumulator }

func (s *Simulator) Degraded() bool { return s.degraded }

// Frame counts completed steps. It seeds the per-slot random streams.
func (s *Simulator) Frame() uint32 { return s.frame }

func (s *Simulator) Kernel() Kernel { return s.kernel }

// SetSpawnInterval retunes the spawn rate. The accumulated remainder is kept.
func (s *Simulator) SetSpawnInterval(v float32) error {
	if v <= 0 {
		return fmt.Errorf("%w: particle spawn interval must be positive, got %g", core.ErrInvalidConfig, v)
	}
	s.cfg.SpawnInterval = v
	return nil
}

type Stats struct {
	Capacity      int
	Live          int
	Accumulator   float64
	Steps         uint64
	SkippedFrames uint64
	ClampedDts    uint64
	Degraded      bool
}

func (s *Simulator) Stats() Stats {
	return Stats{
		Capacity:      s.cfg.Capacity,
		Live:          s.nParticles,
		Accumulator:   s.accumulator,
		Steps:         s.steps,
		SkippedFrames: s.skippedFrames,
		ClampedDts:    s.clampedDts,
		Degraded:      s.degraded,
	}
}

func (s *Simulator) Release() {
	if s.kernel != nil && s.initialized && !s.degraded {
		s.kernel.Release()
	}
	s.initialized = false
}
