// Command atmos-sim runs the cloud layer and the particle emitter headless with a fixed
// step and writes per-frame CSV, a summary and an optional top-down PNG.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gekko3d/atmos"
	"github.com/gekko3d/atmos/config"
	"github.com/gekko3d/atmos/envrt/rt/debugview"
	"github.com/gekko3d/atmos/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or TOML config (empty = use defaults)")
	backend := flag.String("backend", "", "Particle backend: cpu or webgpu (empty = use config)")
	duration := flag.Float64("duration", -1, "Simulated seconds (negative = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	every := flag.Int("every", 0, "Frames between telemetry records (0 = use config)")
	snapshot := flag.Bool("png", false, "Write a top-down PNG of the final state")
	seed := flag.Int64("seed", 0, "Run seed (0 = use config)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Sim.Backend = *backend
	}
	if *duration >= 0 {
		cfg.Sim.Duration = float32(*duration)
	}
	if *outputDir != "" {
		cfg.Telemetry.Dir = *outputDir
	}
	if *every > 0 {
		cfg.Telemetry.Every = *every
	}
	cfg.Telemetry.Snapshot = cfg.Telemetry.Snapshot || *snapshot
	cfg.ApplySeed(*seed)
	cfg.Log.Debug = cfg.Log.Debug || *debug

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "atmos-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Finalize(); err != nil {
		return err
	}
	if cfg.Derived.Steps == 0 {
		return fmt.Errorf("headless runs need a positive sim.duration")
	}

	out, err := telemetry.NewOutputManager(cfg.Telemetry.Dir)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := out.WriteConfig(cfg); err != nil {
		out.Close()
		return err
	}

	kernel, releaseDevice, err := atmos.NewComputeKernel(cfg)
	if err != nil {
		out.Close()
		return err
	}

	app := atmos.NewAppBuilder().
		UseModule(
			atmos.LoggingModule{Prefix: cfg.Log.Prefix, Debug: cfg.Log.Debug},
			atmos.FixedTimeModule{Dt: cfg.Sim.Dt, Steps: cfg.Derived.Steps},
			atmos.CloudsModule{Config: cfg.Clouds},
		).
		Build()

	log := app.Logger()
	// registered first so it runs after the simulator released its buffers
	app.Commands().OnShutdown(releaseDevice)

	app.UseParticleBackend(cfg.Sim.Backend, atmos.ParticlesModule{
		Config: cfg.Particles,
		Kernel: kernel,
		Orbit:  &cfg.Emitter,
	})

	view := debugview.DefaultOptions()
	view.Label = fmt.Sprintf("%s t=%gs", cfg.Sim.Backend, cfg.Sim.Duration)
	app.UseModules(atmos.TelemetryModule{
		Output:   out,
		Backend:  cfg.Sim.Backend,
		Every:    cfg.Telemetry.Every,
		Snapshot: cfg.Telemetry.Snapshot,
		View:     view,
	})

	log.Infof("run %s: backend %s, %d steps of %gs", app.ID, cfg.Sim.Backend, cfg.Derived.Steps, cfg.Sim.Dt)
	app.Run()

	if dir := out.Dir(); dir != "" {
		log.Infof("output written to %s", dir)
	}
	return nil
}
