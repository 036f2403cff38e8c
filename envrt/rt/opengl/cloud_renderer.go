package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/clouds"
	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/mesh"
	"github.com/gekko3d/atmos/envrt/rt/shaders"
)

// cloudAlphaScale is folded into uAlpha before the shader applies its own scale.
const cloudAlphaScale = 0.85

// CloudRenderer draws the shared cloud mesh once per visible cloud with alpha blending.
type CloudRenderer struct {
	program *Program

	vao, vbo, ebo uint32
	indexCount    int32
}

func NewCloudRenderer(log core.Logger) *CloudRenderer {
	r := &CloudRenderer{
		program: NewProgram("clouds",
			Stage{Type: gl.VERTEX_SHADER, Source: shaders.CloudsVertexGLSL},
			Stage{Type: gl.FRAGMENT_SHADER, Source: shaders.CloudsFragmentGLSL},
		),
	}
	r.program.SetLogger(log)
	return r
}

func (r *CloudRenderer) Upload(m *mesh.Mesh) error {
	if m == nil || len(m.Indices) == 0 {
		return fmt.Errorf("failed to upload cloud mesh: empty mesh")
	}
	if err := r.program.Compile(); err != nil {
		return err
	}

	positions := m.Positions()
	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.GenBuffers(1, &r.ebo)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, gl.Ptr(positions), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	r.indexCount = int32(len(m.Indices))
	if err := checkError("upload cloud mesh"); err != nil {
		r.Release()
		return err
	}
	return nil
}

func (r *CloudRenderer) Begin(frame core.Frame) {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	p := r.program
	p.Use()
	p.Apply("uProj", frame.Proj)
	p.Apply("uView", frame.View)
	p.Apply("uCameraPos", frame.CameraPos)
	p.Apply("uLightPos", frame.Light.Direction)
	p.Apply("uLightColor", frame.Light.Color)
	p.Apply("uLightIntensity", frame.Light.Intensity)

	gl.BindVertexArray(r.vao)
}

func (r *CloudRenderer) DrawInstance(model mgl32.Mat4, alpha float32) {
	r.program.Apply("uAlpha", alpha*cloudAlphaScale)
	r.program.Apply("uModel", model)
	gl.DrawElements(gl.TRIANGLES, r.indexCount, gl.UNSIGNED_INT, nil)
}

func (r *CloudRenderer) End() {
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

func (r *CloudRenderer) Release() {
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
		r.ebo = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	r.program.Release()
}

var _ clouds.Renderer = (*CloudRenderer)(nil)
