package debugview

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

func cloudAt(x, z float32, alpha float32) clouds.Instance {
	tr := core.YawTransform{Position: mgl32.Vec3{x, 3, z}, Scale: mgl32.Vec3{4, 1, 2}}
	return clouds.Instance{Transform: tr, Model: tr.ObjectToWorld(), Alpha: alpha}
}

func TestEmptySceneIsBackground(t *testing.T) {
	opts := DefaultOptions()
	img := Render(opts, nil, nil, 0)
	require.Equal(t, opts.Width, img.Bounds().Dx())
	assert.Equal(t, opts.Background, img.RGBAAt(10, 10))
	assert.Equal(t, opts.Background, img.RGBAAt(opts.Width-1, opts.Height-1))
}

func TestCloudFootprintFollowsScale(t *testing.T) {
	opts := DefaultOptions()
	img := Render(opts, []clouds.Instance{cloudAt(0, 0, 1)}, nil, 0)

	center := img.RGBAAt(opts.Width/2, opts.Height/2)
	assert.Greater(t, center.R, opts.Background.R, "cloud brightens its footprint")

	// 4 m along x is inside the footprint, 4 m along z is outside.
	px := func(m float32) int { return int((m + opts.Extent) / (2 * opts.Extent) * float32(opts.Width)) }
	assert.NotEqual(t, opts.Background, img.RGBAAt(px(3.5), opts.Height/2))
	assert.Equal(t, opts.Background, img.RGBAAt(opts.Width/2, px(3.5)))
}

func TestOnlyLiveParticlesAreDrawn(t *testing.T) {
	opts := DefaultOptions()
	red := mgl32.Vec4{1, 0, 0, 1}
	pool := []particles.Particle{
		{Position: mgl32.Vec3{-16, 0, 0}, Color: red, Size: mgl32.Vec2{0.5, 0.5}, TimeToLive: 1, MaxTimeToLive: 1},
		{Position: mgl32.Vec3{16, 0, 0}, Color: red, Size: mgl32.Vec2{0.5, 0.5}, TimeToLive: 1, MaxTimeToLive: 1},
	}
	img := Render(opts, nil, pool, 1)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.RGBAAt(opts.Width/4, opts.Height/2))
	assert.Equal(t, opts.Background, img.RGBAAt(3*opts.Width/4, opts.Height/2))

	// A live count past the pool is clamped.
	assert.NotPanics(t, func() { Render(opts, nil, pool, 10) })
}

func TestLabelAndOutOfViewDoNotPanic(t *testing.T) {
	opts := DefaultOptions()
	opts.Label = "clouds 1 particles 0"
	assert.NotPanics(t, func() {
		Render(opts, []clouds.Instance{cloudAt(500, -500, 1)}, nil, 0)
	})
}
