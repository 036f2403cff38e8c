// Package debugview rasterizes a top-down view of the cloud layer and the particle
// pool, for headless runs and tests.
package debugview

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/particles"
)

const ellipseSegments = 32

type Options struct {
	Width, Height int
	// Extent is the half size in meters of the square world window centered on the origin.
	Extent     float32
	Background color.RGBA
	Label      string
}

func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		Extent:     32,
		Background: color.RGBA{R: 70, G: 110, B: 160, A: 255},
	}
}

type canvas struct {
	img  *image.RGBA
	rast *vector.Rasterizer
	opts Options
}

// Render draws the clouds as their xz footprints and the first live particles as dots.
func Render(opts Options, cloudLayer []clouds.Instance, pool []particles.Particle, live int) *image.RGBA {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultOptions().Width, DefaultOptions().Height
	}
	if opts.Extent <= 0 {
		opts.Extent = DefaultOptions().Extent
	}

	c := &canvas{
		img:  image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		rast: vector.NewRasterizer(opts.Width, opts.Height),
		opts: opts,
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	for i := range cloudLayer {
		c.cloud(&cloudLayer[i])
	}
	live = min(live, len(pool))
	for i := 0; i < live; i++ {
		if pool[i].Active() {
			c.particle(&pool[i])
		}
	}
	if opts.Label != "" {
		c.label(opts.Label)
	}
	return c.img
}

func (c *canvas) toPixel(x, z float32) (float32, float32) {
	e := c.opts.Extent
	w, h := float32(c.opts.Width), float32(c.opts.Height)
	px := (x + e) / (2 * e) * w
	py := (z + e) / (2 * e) * h
	// The rasterizer wants points inside its bounds.
	return mgl32.Clamp(px, 0, w), mgl32.Clamp(py, 0, h)
}

func (c *canvas) fill(col color.Color) {
	c.rast.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
	c.rast.Reset(c.opts.Width, c.opts.Height)
}

// cloud traces the object space unit circle through the instance model matrix.
func (c *canvas) cloud(in *clouds.Instance) {
	for s := 0; s <= ellipseSegments; s++ {
		a := float64(s) / ellipseSegments * 2 * math.Pi
		local := mgl32.Vec4{float32(math.Cos(a)), 0, float32(math.Sin(a)), 1}
		w := in.Model.Mul4x1(local)
		x, y := c.toPixel(w.X(), w.Z())
		if s == 0 {
			c.rast.MoveTo(x, y)
		} else {
			c.rast.LineTo(x, y)
		}
	}
	c.rast.ClosePath()
	c.fill(color.NRGBA{R: 238, G: 240, B: 246, A: alpha8(in.Alpha * 0.85)})
}

func (c *canvas) particle(p *particles.Particle) {
	x, y := c.toPixel(p.Position.X(), p.Position.Z())
	r := p.Size.X() / (2 * c.opts.Extent) * float32(c.opts.Width) / 2
	r = max(r, 1)
	w, h := float32(c.opts.Width), float32(c.opts.Height)
	x0, x1 := mgl32.Clamp(x-r, 0, w), mgl32.Clamp(x+r, 0, w)
	y0, y1 := mgl32.Clamp(y-r, 0, h), mgl32.Clamp(y+r, 0, h)
	c.rast.MoveTo(x0, y0)
	c.rast.LineTo(x1, y0)
	c.rast.LineTo(x1, y1)
	c.rast.LineTo(x0, y1)
	c.rast.ClosePath()
	c.fill(color.NRGBA{
		R: alpha8(p.Color.X()),
		G: alpha8(p.Color.Y()),
		B: alpha8(p.Color.Z()),
		A: alpha8(p.Color.W()),
	})
}

func (c *canvas) label(s string) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(6, 16),
	}
	d.DrawString(s)
}

func alpha8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
