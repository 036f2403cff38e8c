package atmos

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/config"
	"github.com/gekko3d/atmos/envrt/rt/core"
)

// View is the camera and light every renderer reads in Render.
type View struct {
	Width, Height int
	FovY          float32 // degrees
	Near, Far     float32

	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Light  core.Light

	proj mgl32.Mat4
	view mgl32.Mat4
}

// Resize updates the viewport and projection.
func (v *View) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.Width, v.Height = width, height
	v.refresh()
}

// LookAt moves the camera.
func (v *View) LookAt(eye, target mgl32.Vec3) {
	v.Eye, v.Target = eye, target
	v.refresh()
}

func (v *View) refresh() {
	aspect := float32(v.Width) / float32(v.Height)
	v.proj = mgl32.Perspective(mgl32.DegToRad(v.FovY), aspect, v.Near, v.Far)
	v.view = mgl32.LookAtV(v.Eye, v.Target, mgl32.Vec3{0, 1, 0})
}

func (v *View) Frame() core.Frame {
	return core.Frame{
		Proj:      v.proj,
		View:      v.view,
		CameraPos: v.Eye,
		Light:     v.Light,
	}
}

type ViewModule struct {
	Config config.ViewConfig
	Light  core.Light
}

func (mod ViewModule) Install(app *App, cmd *Commands) {
	c := mod.Config
	light := mod.Light
	if light.Direction.Len() == 0 {
		light = core.DefaultLight()
	} else {
		light.Direction = light.Direction.Normalize()
	}
	v := &View{
		Width:  c.Width,
		Height: c.Height,
		FovY:   c.FovY,
		Near:   c.Near,
		Far:    c.Far,
		Eye:    mgl32.Vec3{0, c.CameraHeight, c.CameraDistance},
		Light:  light,
	}
	v.refresh()
	cmd.AddResources(v)
}
