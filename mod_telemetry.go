package atmos

import (
	"image"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/debugview"
	"github.com/gekko3d/atmos/envrt/rt/particles"
	"github.com/gekko3d/atmos/telemetry"
)

// Telemetry samples the cloud and particle state every few frames.
type Telemetry struct {
	Collector *telemetry.Collector
	Output    *telemetry.OutputManager
	Every     int
	Last      telemetry.FrameRecord

	log     Logger
	pool    []particles.Particle
	visible []clouds.Instance
}

// TelemetryModule records frames after Update. Output may be nil to only collect in memory.
// With Snapshot set a top-down PNG of the final state is written on shutdown.
type TelemetryModule struct {
	Output   *telemetry.OutputManager
	Backend  string
	Every    int
	Snapshot bool
	View     debugview.Options
}

func (mod TelemetryModule) Install(app *App, cmd *Commands) {
	every := mod.Every
	if every <= 0 {
		every = 1
	}
	res := &Telemetry{
		Collector: telemetry.NewCollector(app.ID, mod.Backend, 0),
		Output:    mod.Output,
		Every:     every,
		log:       app.Logger(),
	}
	cmd.AddResources(res)
	cmd.UseSystem(System(telemetrySystem).InStage(PostUpdate))

	log := res.log
	cmd.OnShutdown(func() {
		if mod.Snapshot {
			if err := res.Output.WriteImage("topdown.png", res.render(app, mod.View)); err != nil {
				log.Errorf("telemetry: %v", err)
			}
		}
		summary := res.Collector.Summarize()
		if err := res.Output.WriteSummary(summary); err != nil {
			log.Errorf("telemetry: %v", err)
		}
		if err := res.Output.Close(); err != nil {
			log.Errorf("telemetry: closing output: %v", err)
		}
		log.Infof("telemetry: %d frames, %d particles, %.2f clouds visible on average",
			summary.Frames, summary.FinalParticles, summary.CloudsVisibleMean)
	})
}

func (tel *Telemetry) render(app *App, opts debugview.Options) *image.RGBA {
	live := 0
	tel.visible = tel.visible[:0]
	if c, ok := Resource[Clouds](app); ok && c.Ready() {
		tel.visible = c.Manager.Visible(tel.visible)
	}
	if p, ok := Resource[Particles](app); ok && p.Ready() {
		live = p.Sim.NParticles()
		if pool, err := p.Sim.Snapshot(tel.pool[:0]); err == nil {
			tel.pool = pool
		}
	}
	return debugview.Render(opts, tel.visible, tel.pool, live)
}

func telemetrySystem(t *Time, c *Clouds, p *Particles, tel *Telemetry) {
	if t.Frame%uint64(tel.Every) != 0 {
		return
	}
	r := telemetry.FrameRecord{
		RunID:   tel.Collector.RunID,
		Frame:   int(t.Frame),
		SimTime: t.Seconds(),
		Dt:      t.DtSeconds(),
	}
	if c.Ready() {
		s := c.Manager.Stats()
		r.CloudsVisible = s.Visible
		r.CloudsDrawn = c.Drawn
		r.CloudRespawns = s.Respawns
	}
	if p.Ready() {
		// resolved here so the module can be installed before ParticlesModule
		if tel.Collector.Capacity == 0 {
			tel.Collector.Capacity = p.Sim.Capacity()
		}
		s := p.Sim.Stats()
		r.Particles = s.Live
		r.Accumulator = s.Accumulator
		r.SkippedFrames = s.SkippedFrames
		r.CurrentBuffer = p.Sim.CurrentBuffer().Index
		r.UpdateMicros = float64(p.UpdateTime.Microseconds())
		if pool, err := p.Sim.Snapshot(tel.pool[:0]); err == nil {
			tel.pool = pool
			r.ActiveParticles, r.MeanLifeLeft = telemetry.LifeStats(pool)
		}
	}
	tel.Last = r
	tel.Collector.Add(r)
	if err := tel.Output.WriteFrame(r); err != nil {
		tel.log.Errorf("telemetry: %v", err)
	}
}
