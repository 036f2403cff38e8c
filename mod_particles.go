package atmos

import (
	"errors"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/config"
	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

// Emitter is the spawn point and direction for new particles, in world space.
// Vehicle glue writes it before Update.
type Emitter struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
}

// EmitterOrbit moves the Emitter along a circle, a stand-in for a vehicle.
type EmitterOrbit struct {
	Radius       float32
	Height       float32
	AngularSpeed float32 // rad/s
}

// At places the emitter at simulated time t, exhausting against the direction of travel.
func (o EmitterOrbit) At(t float64) Emitter {
	a := float64(o.AngularSpeed) * t
	sin, cos := float32(math.Sin(a)), float32(math.Cos(a))
	return Emitter{
		Position:  mgl32.Vec3{o.Radius * cos, o.Height, o.Radius * sin},
		Direction: mgl32.Vec3{sin, 0.15, -cos},
	}
}

// ParticleDrawer draws the live range of the current particle buffer.
type ParticleDrawer interface {
	DrawParticles(frame core.Frame, ref particles.BufferRef)
}

// Particles is the particle simulator resource.
type Particles struct {
	Sim *particles.Simulator
	// Err holds a fatal setup error. A failed allocation only degrades the simulator.
	Err error
	// LastErr is the error of the most recent step, nil when it succeeded.
	LastErr    error
	UpdateTime time.Duration
	drawer     ParticleDrawer
}

func (p *Particles) Ready() bool { return p.Sim != nil && p.Err == nil }

// ParticlesModule runs the ping-pong update in Update. A nil Kernel selects the CPU kernel.
type ParticlesModule struct {
	Config particles.Config
	Kernel particles.Kernel
	Drawer ParticleDrawer
	// Orbit drives the Emitter when set; otherwise the Emitter is left to other systems.
	Orbit *config.EmitterConfig
}

func (mod ParticlesModule) Install(app *App, cmd *Commands) {
	log := app.Logger()

	kernel := mod.Kernel
	if kernel == nil {
		kernel = particles.NewCPUKernel(particles.WithWorkers(mod.Config.Workers))
	}
	res := &Particles{
		Sim:    particles.New(mod.Config, kernel, particles.WithLogger(log)),
		drawer: mod.Drawer,
	}
	if err := res.Sim.Initialize(); err != nil {
		if errors.Is(err, core.ErrDegraded) {
			log.Warnf("particles: update pass unavailable: %v", err)
		} else {
			log.Errorf("particles: setup failed: %v", err)
			res.Err = err
		}
	} else {
		log.Infof("particles: capacity %d, spawn every %gs", mod.Config.Capacity, mod.Config.SpawnInterval)
	}

	cmd.AddResources(res, &Emitter{Direction: mgl32.Vec3{0, 0, -1}})
	if mod.Orbit != nil {
		cmd.AddResources(&EmitterOrbit{
			Radius:       mod.Orbit.OrbitRadius,
			Height:       mod.Orbit.OrbitHeight,
			AngularSpeed: mod.Orbit.AngularSpeed,
		})
		cmd.UseSystem(System(emitterOrbitSystem).InStage(PreUpdate))
	}
	cmd.UseSystem(System(particlesUpdateSystem).InStage(Update))
	if mod.Drawer != nil {
		cmd.UseSystem(System(particlesDrawSystem).InStage(Render))
	}
	cmd.OnShutdown(res.Sim.Release)
}

func emitterOrbitSystem(t *Time, orbit *EmitterOrbit, e *Emitter) {
	*e = orbit.At(t.Seconds())
}

func particlesUpdateSystem(t *Time, e *Emitter, p *Particles) {
	if !p.Ready() {
		return
	}
	start := time.Now()
	p.LastErr = p.Sim.Update(t.DtSeconds(), e.Position, e.Direction)
	p.UpdateTime = time.Since(start)
}

func particlesDrawSystem(v *View, p *Particles) {
	if !p.Ready() {
		return
	}
	ref := p.Sim.CurrentBuffer()
	if !ref.Valid || ref.Live == 0 {
		return
	}
	p.drawer.DrawParticles(v.Frame(), ref)
}
