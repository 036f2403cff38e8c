package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

// Stage is one shader source of a program.
type Stage struct {
	Type   uint32 // gl.VERTEX_SHADER, gl.FRAGMENT_SHADER, gl.COMPUTE_SHADER
	Source string
}

// Program is a linked GL program with a uniform location cache.
type Program struct {
	Name   string
	stages []Stage

	id        uint32
	locations map[string]int32

	log      core.Logger
	reported map[string]bool
}

func NewProgram(name string, stages ...Stage) *Program {
	return &Program{Name: name, stages: stages, log: core.NewNopLogger()}
}

// SetLogger sets where Apply reports uniform failures.
func (p *Program) SetLogger(l core.Logger) { p.log = core.OrNop(l) }

func (p *Program) ID() uint32 { return p.id }

func (p *Program) Compile() error {
	if p.id != 0 {
		return nil
	}
	ids := make([]uint32, 0, len(p.stages))
	defer func() {
		for _, id := range ids {
			gl.DeleteShader(id)
		}
	}()
	for _, st := range p.stages {
		id, err := compileShader(st.Source, st.Type)
		if err != nil {
			return fmt.Errorf("failed to compile %s %s shader: %w", p.Name, stageName(st.Type), err)
		}
		ids = append(ids, id)
	}

	prog, err := linkProgram(ids...)
	if err != nil {
		return fmt.Errorf("failed to link %s program: %w", p.Name, err)
	}
	p.id = prog
	p.locations = make(map[string]int32)
	return nil
}

func (p *Program) Use() { gl.UseProgram(p.id) }

func (p *Program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

// SetUniform sets a uniform of the program in use. Uniforms the linker dropped
// are ignored.
func (p *Program) SetUniform(name string, value any) error {
	if p.id == 0 {
		return fmt.Errorf("%s program: %w", p.Name, core.ErrNotInitialized)
	}
	loc := p.location(name)
	if loc < 0 {
		return nil
	}
	switch v := value.(type) {
	case float32:
		gl.Uniform1f(loc, v)
	case int32:
		gl.Uniform1i(loc, v)
	case int:
		gl.Uniform1i(loc, int32(v))
	case uint32:
		gl.Uniform1ui(loc, v)
	case bool:
		b := int32(0)
		if v {
			b = 1
		}
		gl.Uniform1i(loc, b)
	case mgl32.Vec2:
		gl.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	default:
		return fmt.Errorf("%s program: unsupported uniform %s of type %T", p.Name, name, value)
	}
	return nil
}

// Apply is SetUniform for draw paths. The first failure of each uniform is logged,
// repeats are not.
func (p *Program) Apply(name string, value any) {
	err := p.SetUniform(name, value)
	if err == nil || p.reported[name] {
		return
	}
	if p.reported == nil {
		p.reported = make(map[string]bool)
	}
	p.reported[name] = true
	p.log.Errorf("opengl: uniform %s: %v", name, err)
}

func (p *Program) Release() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
	p.locations = nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func linkProgram(shaders ...uint32) (uint32, error) {
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(prog, logLength, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("%s", strings.TrimRight(log, "\x00"))
	}
	for _, s := range shaders {
		gl.DetachShader(prog, s)
	}
	return prog, nil
}

func stageName(t uint32) string {
	switch t {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.COMPUTE_SHADER:
		return "compute"
	}
	return "unknown"
}

// checkError drains the GL error queue and reports the first error.
func checkError(op string) error {
	var first uint32
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == 0 {
			first = e
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: gl error 0x%x", op, first)
	}
	return nil
}

var _ core.GpuProgram = (*Program)(nil)
