package clouds

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
	"github.com/gekko3d/atmos/envrt/rt/mesh"
)

// Renderer draws the shared cloud mesh. Upload is called once; Begin binds the mesh
// and frame uniforms, DrawInstance issues one draw with a per-cloud model matrix and alpha.
type Renderer interface {
	Upload(m *mesh.Mesh) error
	Begin(frame core.Frame)
	DrawInstance(model mgl32.Mat4, alpha float32)
	End()
	Release()
}
