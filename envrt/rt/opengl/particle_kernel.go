package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/gekko3d/atmos/envrt/rt/particles"
	"github.com/gekko3d/atmos/envrt/rt/shaders"
)

const computeGroupSize = 64

// ParticleKernel runs the update pass as a GLSL compute shader over two SSBOs.
// It needs a current GL 4.3 context on the calling thread.
type ParticleKernel struct {
	program  *Program
	ssbo     [2]uint32
	capacity int
}

func NewParticleKernel() *ParticleKernel {
	return &ParticleKernel{
		program: NewProgram("particles update", Stage{Type: gl.COMPUTE_SHADER, Source: shaders.ParticlesUpdateGLSL}),
	}
}

func (k *ParticleKernel) Allocate(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("failed to allocate particle buffers: capacity %d", capacity)
	}
	if err := k.program.Compile(); err != nil {
		return err
	}

	size := capacity * particles.ParticleStride
	zero := make([]byte, size)
	gl.GenBuffers(2, &k.ssbo[0])
	for i, id := range k.ssbo {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, id)
		if i == 0 {
			gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, gl.Ptr(zero), gl.DYNAMIC_COPY)
		} else {
			gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_COPY)
		}
	}
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if err := checkError("allocate particle buffers"); err != nil {
		k.Release()
		return err
	}
	k.capacity = capacity
	return nil
}

// Dispatch runs the compute pass and issues a storage barrier so later draws and
// dispatches see every write.
func (k *ParticleKernel) Dispatch(read, write int, u particles.Uniforms) error {
	if k.capacity == 0 {
		return fmt.Errorf("particle buffers not allocated")
	}
	if read < 0 || read > 1 || write != 1-read {
		return fmt.Errorf("invalid particle buffer roles %d -> %d", read, write)
	}

	p := k.program
	p.Use()
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, k.ssbo[read])
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 1, k.ssbo[write])

	uniforms := []struct {
		name  string
		value any
	}{
		{"uEmitterPos", u.EmitterPos},
		{"uDeltaTime", u.DeltaTime},
		{"uEmitterDir", u.EmitterDir},
		{"uNParticles", u.NParticles},
		{"uStartColor", u.StartColor},
		{"uTtlMin", u.TTLMin},
		{"uTtlMax", u.TTLMax},
		{"uSpeedMin", u.SpeedMin},
		{"uSpeedMax", u.SpeedMax},
		{"uSpread", u.Spread},
		{"uStartSize", u.StartSize},
		{"uSizeGrowth", u.SizeGrowth},
		{"uSpinMin", u.SpinMin},
		{"uSpinMax", u.SpinMax},
		{"uSeed", u.Seed},
		{"uFrame", u.Frame},
		{"uCapacity", u.Capacity},
	}
	for _, un := range uniforms {
		if err := p.SetUniform(un.name, un.value); err != nil {
			return err
		}
	}

	groups := (uint32(k.capacity) + computeGroupSize - 1) / computeGroupSize
	gl.DispatchCompute(groups, 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.VERTEX_ATTRIB_ARRAY_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, 0)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 1, 0)
	return checkError("dispatch particle update")
}

func (k *ParticleKernel) Snapshot(index int, dst []particles.Particle) ([]particles.Particle, error) {
	if index < 0 || index > 1 || k.capacity == 0 {
		return dst, fmt.Errorf("failed to snapshot particle buffer %d: not allocated", index)
	}
	data := make([]byte, k.capacity*particles.ParticleStride)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, k.ssbo[index])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if err := checkError("read particle buffer"); err != nil {
		return dst, err
	}
	return particles.DecodeParticles(dst, data)
}

// BufferID returns the SSBO name behind index.
func (k *ParticleKernel) BufferID(index int) uint32 {
	if index < 0 || index > 1 {
		return 0
	}
	return k.ssbo[index]
}

func (k *ParticleKernel) Release() {
	if k.ssbo[0] != 0 || k.ssbo[1] != 0 {
		gl.DeleteBuffers(2, &k.ssbo[0])
		k.ssbo = [2]uint32{}
	}
	k.program.Release()
	k.capacity = 0
}

var _ particles.Kernel = (*ParticleKernel)(nil)
