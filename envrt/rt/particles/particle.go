package particles

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleStride is the std430 size of one Particle in the GPU buffers.
const ParticleStride = 64

// Particle matches the layout in particles_update.{glsl,wgsl}
// struct Particle { vec3 pos; float zRot; vec4 vel; vec4 color; vec2 size; float ttl; float maxTtl; }
// Velocity.W holds the billboard spin rate.
type Particle struct {
	Position      mgl32.Vec3
	ZOrientation  float32
	Velocity      mgl32.Vec4
	Color         mgl32.Vec4
	Size          mgl32.Vec2
	TimeToLive    float32
	MaxTimeToLive float32
}

// Active reports whether the slot holds a live particle.
func (p *Particle) Active() bool { return p.TimeToLive > 0 }

func (p *Particle) words() [16]float32 {
	return [16]float32{
		p.Position[0], p.Position[1], p.Position[2], p.ZOrientation,
		p.Velocity[0], p.Velocity[1], p.Velocity[2], p.Velocity[3],
		p.Color[0], p.Color[1], p.Color[2], p.Color[3],
		p.Size[0], p.Size[1], p.TimeToLive, p.MaxTimeToLive,
	}
}

func (p *Particle) setWords(w *[16]float32) {
	p.Position = mgl32.Vec3{w[0], w[1], w[2]}
	p.ZOrientation = w[3]
	p.Velocity = mgl32.Vec4{w[4], w[5], w[6], w[7]}
	p.Color = mgl32.Vec4{w[8], w[9], w[10], w[11]}
	p.Size = mgl32.Vec2{w[12], w[13]}
	p.TimeToLive = w[14]
	p.MaxTimeToLive = w[15]
}

// EncodeParticles appends the little endian GPU image of ps to dst.
func EncodeParticles(dst []byte, ps []Particle) []byte {
	var buf [ParticleStride]byte
	for i := range ps {
		w := ps[i].words()
		for j, f := range w {
			binary.LittleEndian.PutUint32(buf[j*4:j*4+4], math.Float32bits(f))
		}
		dst = append(dst, buf[:]...)
	}
	return dst
}

// DecodeParticles appends the particles stored in data to dst.
func DecodeParticles(dst []Particle, data []byte) ([]Particle, error) {
	if len(data)%ParticleStride != 0 {
		return dst, fmt.Errorf("particle buffer size %d is not a multiple of %d", len(data), ParticleStride)
	}
	var w [16]float32
	for off := 0; off < len(data); off += ParticleStride {
		for j := range w {
			w[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+j*4:]))
		}
		var p Particle
		p.setWords(&w)
		dst = append(dst, p)
	}
	return dst, nil
}
