package atmos

import (
	"fmt"

	"github.com/gekko3d/atmos/config"
	"github.com/gekko3d/atmos/envrt/rt/gpu"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

// BackendTag marks which compute backend runs the particle pass.
// Only one backend may be installed at a time.
type BackendTag struct {
	Name string
}

// ensureSingleBackend panics if a different backend is already installed.
func ensureSingleBackend(app *App, name string) {
	if app == nil {
		panic("ensureSingleBackend: app is nil")
	}
	if tag, ok := Resource[BackendTag](app); ok {
		if tag.Name != name {
			app.Logger().Errorf("Multiple particle backends installed: %s and %s", tag.Name, name)
			panic(fmt.Sprintf("Multiple particle backends installed: %s and %s", tag.Name, name))
		}
		return
	}
	app.addResources(&BackendTag{Name: name})
}

// UseParticleBackend installs the particle module tagged with its backend.
//
//	app.UseParticleBackend(config.BackendCPU, ParticlesModule{Config: cfg.Particles})
func (app *App) UseParticleBackend(name string, mod ParticlesModule) *App {
	ensureSingleBackend(app, name)
	app.Logger().Infof("Particle backend selected: %s", name)
	app.UseModules(mod)
	return app
}

// NewComputeKernel builds the particle kernel for a backend that needs no window.
// The returned release func frees the device, call it after the simulator is released.
// The OpenGL backend needs a current GL context and is set up by the viewer.
func NewComputeKernel(cfg *config.Config) (particles.Kernel, func(), error) {
	switch cfg.Sim.Backend {
	case config.BackendCPU:
		return particles.NewCPUKernel(particles.WithWorkers(cfg.Particles.Workers)), func() {}, nil
	case config.BackendWebGPU:
		ctx, err := gpu.NewHeadlessContext()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create webgpu context: %w", err)
		}
		return gpu.NewParticleKernel(ctx.Device), ctx.Release, nil
	case config.BackendOpenGL:
		return nil, nil, fmt.Errorf("backend %q needs a window, run the viewer", cfg.Sim.Backend)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Sim.Backend)
	}
}
