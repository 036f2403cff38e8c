package atmos

import (
	"errors"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/core"
)

// Clouds is the cloud layer resource.
type Clouds struct {
	Manager *clouds.Manager
	// Err holds a fatal setup error. A degraded renderer is not fatal.
	Err   error
	Drawn int
}

// Ready reports whether the layer simulates.
func (c *Clouds) Ready() bool { return c.Manager != nil && c.Err == nil }

// CloudsModule simulates the cloud pool in Update and draws it in Render when a renderer is set.
type CloudsModule struct {
	Config   clouds.Config
	Renderer clouds.Renderer
}

func (mod CloudsModule) Install(app *App, cmd *Commands) {
	log := app.Logger()

	opts := []clouds.Option{clouds.WithLogger(log)}
	if mod.Renderer != nil {
		opts = append(opts, clouds.WithRenderer(mod.Renderer))
	}
	res := &Clouds{Manager: clouds.New(mod.Config, opts...)}

	if err := res.Manager.Initialize(); err != nil {
		if errors.Is(err, core.ErrDegraded) {
			log.Warnf("clouds: running without drawing: %v", err)
		} else {
			log.Errorf("clouds: setup failed: %v", err)
			res.Err = err
		}
	} else {
		log.Infof("clouds: %d clouds initialized", mod.Config.PoolSize)
	}

	cmd.AddResources(res)
	cmd.UseSystem(System(cloudsUpdateSystem).InStage(Update))
	if mod.Renderer != nil {
		cmd.UseSystem(System(cloudsDrawSystem).InStage(Render))
	}
	cmd.OnShutdown(res.Manager.Release)
}

func cloudsUpdateSystem(t *Time, c *Clouds) {
	if !c.Ready() {
		return
	}
	c.Manager.Update(t.DtSeconds())
}

func cloudsDrawSystem(v *View, c *Clouds) {
	if !c.Ready() {
		return
	}
	c.Drawn = c.Manager.Draw(v.Frame())
}
