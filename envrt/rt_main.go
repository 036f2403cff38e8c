package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos"
	"github.com/gekko3d/atmos/config"
	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/opengl"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

func init() {
	runtime.LockOSThread()
}

// window is the viewer's glfw window plus the orbit camera driven by the arrow keys.
type window struct {
	*glfw.Window
	yaw, pitch float32
	sky        mgl32.Vec3
}

// glParticles draws from the SSBOs the GL kernel writes.
type glParticles struct {
	renderer *opengl.ParticleRenderer
	kernel   *opengl.ParticleKernel
	view     *atmos.View
}

func (d glParticles) DrawParticles(frame core.Frame, ref particles.BufferRef) {
	d.renderer.Draw(frame, d.kernel, ref, float32(d.view.Height))
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML or TOML config (empty = use defaults)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Sim.Backend = config.BackendOpenGL
	cfg.Log.Debug = cfg.Log.Debug || *debug
	if err := cfg.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	w, err := glfw.CreateWindow(cfg.View.Width, cfg.View.Height, "atmos", nil, nil)
	if err != nil {
		panic(err)
	}
	defer w.Destroy()
	w.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		panic(err)
	}

	win := &window{Window: w, pitch: 0.4, sky: mgl32.Vec3{0.45, 0.62, 0.82}}
	logger := atmos.NewDefaultLogger(cfg.Log.Prefix, cfg.Log.Debug)
	glKernel := opengl.NewParticleKernel()
	cloudRenderer := opengl.NewCloudRenderer(logger)
	particleRenderer := opengl.NewParticleRenderer(logger)

	app := atmos.NewAppBuilder().
		UseModule(
			atmos.LoggingModule{Logger: logger},
			atmos.TimeModule{},
			atmos.ViewModule{Config: cfg.View, Light: cfg.Light()},
			atmos.CloudsModule{Config: cfg.Clouds, Renderer: cloudRenderer},
		).
		Build()
	log := app.Logger()
	log.Infof("OpenGL %s, %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	view, _ := atmos.Resource[atmos.View](app)
	drawer := glParticles{renderer: particleRenderer, kernel: glKernel, view: view}
	if err := particleRenderer.Init(); err != nil {
		log.Errorf("particles: renderer setup failed: %v", err)
	}
	app.Commands().
		AddResources(win).
		OnShutdown(particleRenderer.Release)

	app.UseParticleBackend(config.BackendOpenGL, atmos.ParticlesModule{
		Config: cfg.Particles,
		Kernel: glKernel,
		Drawer: drawer,
		Orbit:  &cfg.Emitter,
	})
	app.UseSystem(atmos.System(cameraSystem).InStage(atmos.PreRender))
	app.UseSystem(atmos.System(presentSystem).InStage(atmos.PostRender))

	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		gl.Viewport(0, 0, int32(width), int32(height))
		view.Resize(width, height)
	})
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	app.Run()
}

func cameraSystem(t *atmos.Time, win *window, v *atmos.View) {
	const turnSpeed = 1.2 // rad/s
	dt := t.DtSeconds()
	if win.GetKey(glfw.KeyLeft) == glfw.Press {
		win.yaw -= turnSpeed * dt
	}
	if win.GetKey(glfw.KeyRight) == glfw.Press {
		win.yaw += turnSpeed * dt
	}
	if win.GetKey(glfw.KeyUp) == glfw.Press {
		win.pitch = min(win.pitch+turnSpeed*dt, 1.4)
	}
	if win.GetKey(glfw.KeyDown) == glfw.Press {
		win.pitch = max(win.pitch-turnSpeed*dt, 0.05)
	}

	dist := v.Eye.Sub(v.Target).Len()
	sy, cy := math.Sincos(float64(win.yaw))
	sp, cp := math.Sincos(float64(win.pitch))
	eye := mgl32.Vec3{
		dist * float32(cp*sy),
		dist * float32(sp),
		dist * float32(cp*cy),
	}
	v.LookAt(v.Target.Add(eye), v.Target)

	gl.ClearColor(win.sky.X(), win.sky.Y(), win.sky.Z(), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func presentSystem(win *window, cmd *atmos.Commands) {
	win.SwapBuffers()
	glfw.PollEvents()
	if win.ShouldClose() {
		cmd.Exit()
	}
}
