package core

// GpuProgram is the capability every concrete shader program exposes.
// Values accepted by SetUniform depend on the backend; the GL backend takes
// float32, int32, uint32, mgl32.Vec2/3/4 and mgl32.Mat4.
type GpuProgram interface {
	Compile() error
	Use()
	SetUniform(name string, value any) error
	Release()
}
