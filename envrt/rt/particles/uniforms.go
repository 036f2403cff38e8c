package particles

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformsSize is the byte size of the Params block shared with the compute shaders.
const UniformsSize = 96

// Uniforms is everything one update pass reads besides the particle buffer.
// Field order follows the Params block in particles_update.{glsl,wgsl}.
type Uniforms struct {
	EmitterPos mgl32.Vec3
	DeltaTime  float32
	EmitterDir mgl32.Vec3
	NParticles uint32
	StartColor mgl32.Vec4
	TTLMin     float32
	TTLMax     float32
	SpeedMin   float32
	SpeedMax   float32
	Spread     float32
	StartSize  float32
	SizeGrowth float32
	SpinMin    float32
	SpinMax    float32
	Seed       uint32
	Frame      uint32
	Capacity   uint32
}

func (u *Uniforms) ToBytes() []byte {
	buf := make([]byte, UniformsSize)
	f := func(off int, v float32) { binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v)) }
	w := func(off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:off+4], v) }

	f(0, u.EmitterPos[0])
	f(4, u.EmitterPos[1])
	f(8, u.EmitterPos[2])
	f(12, u.DeltaTime)
	f(16, u.EmitterDir[0])
	f(20, u.EmitterDir[1])
	f(24, u.EmitterDir[2])
	w(28, u.NParticles)
	for i := 0; i < 4; i++ {
		f(32+i*4, u.StartColor[i])
	}
	f(48, u.TTLMin)
	f(52, u.TTLMax)
	f(56, u.SpeedMin)
	f(60, u.SpeedMax)
	f(64, u.Spread)
	f(68, u.StartSize)
	f(72, u.SizeGrowth)
	f(76, u.SpinMin)
	f(80, u.SpinMax)
	w(84, u.Seed)
	w(88, u.Frame)
	w(92, u.Capacity)
	return buf
}
