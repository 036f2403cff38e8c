package opengl

import (
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/particles"
	"github.com/gekko3d/atmos/envrt/rt/shaders"
)

// ParticleRenderer draws the live slots of a particle SSBO as point sprites.
// Vertices are pulled from the buffer by gl_VertexID, so the VAO is empty.
type ParticleRenderer struct {
	program *Program
	vao     uint32
}

func NewParticleRenderer(log core.Logger) *ParticleRenderer {
	r := &ParticleRenderer{
		program: NewProgram("particles",
			Stage{Type: gl.VERTEX_SHADER, Source: shaders.ParticlesVertexGLSL},
			Stage{Type: gl.FRAGMENT_SHADER, Source: shaders.ParticlesFragmentGLSL},
		),
	}
	r.program.SetLogger(log)
	return r
}

func (r *ParticleRenderer) Init() error {
	if err := r.program.Compile(); err != nil {
		return err
	}
	if r.vao == 0 {
		gl.GenVertexArrays(1, &r.vao)
	}
	return checkError("init particle renderer")
}

// Draw renders ref from kernel. Frames whose update failed are skipped.
func (r *ParticleRenderer) Draw(frame core.Frame, kernel *ParticleKernel, ref particles.BufferRef, viewportHeight float32) {
	if !ref.Valid || ref.Live == 0 || r.vao == 0 {
		return
	}

	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(false)

	p := r.program
	p.Use()
	p.Apply("uProj", frame.Proj)
	p.Apply("uView", frame.View)
	p.Apply("uViewportHeight", viewportHeight)

	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, kernel.BufferID(ref.Index))
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(gl.POINTS, 0, int32(ref.Live))
	gl.BindVertexArray(0)
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, 0, 0)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.PROGRAM_POINT_SIZE)
}

func (r *ParticleRenderer) Release() {
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	r.program.Release()
}
