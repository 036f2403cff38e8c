package mesh

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

// DefaultRadiusRange is the multiplicative radius perturbation of a cloud mesh vertex.
var DefaultRadiusRange = core.R(0.8, 1.2)

// Noise yields the radius factor of vertex i at unit direction dir.
type Noise interface {
	Factor(i int, dir mgl32.Vec3) float32
}

// UniformNoise draws independent factors from a seeded source.
type UniformNoise struct {
	Range core.Range
	rng   *rand.Rand
}

func NewUniformNoise(seed int64, r core.Range) *UniformNoise {
	return &UniformNoise{Range: r, rng: rand.New(rand.NewSource(seed))}
}

func (n *UniformNoise) Factor(_ int, _ mgl32.Vec3) float32 {
	return n.Range.Lerp(n.rng.Float32())
}

// SimplexNoise samples coherent 3D noise at the vertex direction, so neighbouring
// vertices bulge together instead of independently.
type SimplexNoise struct {
	Range     core.Range
	Frequency float32
	noise     opensimplex.Noise
}

func NewSimplexNoise(seed int64, r core.Range, frequency float32) *SimplexNoise {
	if frequency <= 0 {
		frequency = 1.5
	}
	return &SimplexNoise{
		Range:     r,
		Frequency: frequency,
		noise:     opensimplex.NewNormalized(seed),
	}
}

func (n *SimplexNoise) Factor(_ int, dir mgl32.Vec3) float32 {
	p := dir.Mul(n.Frequency)
	v := float32(n.noise.Eval3(float64(p.X()), float64(p.Y()), float64(p.Z())))
	// Normalized noise is [0,1]; keep the top edge open.
	if v >= 1 {
		v = 0.999999
	}
	if v < 0 {
		v = 0
	}
	return n.Range.Lerp(v)
}
