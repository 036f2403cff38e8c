package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/atmos/envrt/rt/core"
)

// Mesh is a static indexed triangle mesh shared by every cloud instance.
type Mesh struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
}

func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Positions flattens the vertices as x,y,z triples for a vertex buffer upload.
func (m *Mesh) Positions() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, v.X(), v.Y(), v.Z())
	}
	return out
}

// VertexCount is the closed-form vertex count of an icosphere at the given level.
func VertexCount(level int) int {
	return 10*pow4(level) + 2
}

// FaceCount is the closed-form triangle count of an icosphere at the given level.
func FaceCount(level int) int {
	return 20 * pow4(level)
}

func pow4(n int) int {
	r := 1
	for i := 0; i < n; i++ {
		r *= 4
	}
	return r
}

var icosahedronFaces = []uint32{
	0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
	1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
	3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
	4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
}

func icosahedronVertices() []mgl32.Vec3 {
	t := float32((1.0 + math.Sqrt(5.0)) / 2.0)
	raw := []mgl32.Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range raw {
		raw[i] = raw[i].Normalize()
	}
	return raw
}

// edge is an undirected edge; a is always the smaller index.
type edge struct {
	a, b uint32
}

func makeEdge(v1, v2 uint32) edge {
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	return edge{a: v1, b: v2}
}

// subdivider splits every triangle into four, sharing midpoints across neighbours.
type subdivider struct {
	vertices []mgl32.Vec3
	cache    map[edge]uint32
}

func (s *subdivider) midpoint(v1, v2 uint32) uint32 {
	e := makeEdge(v1, v2)
	if idx, ok := s.cache[e]; ok {
		return idx
	}
	mid := s.vertices[e.a].Add(s.vertices[e.b]).Mul(0.5).Normalize()
	idx := uint32(len(s.vertices))
	s.vertices = append(s.vertices, mid)
	s.cache[e] = idx
	return idx
}

func subdivide(vertices []mgl32.Vec3, indices []uint32) ([]mgl32.Vec3, []uint32) {
	s := &subdivider{
		vertices: vertices,
		// Each edge is shared by two faces.
		cache: make(map[edge]uint32, len(indices)/2),
	}
	out := make([]uint32, 0, len(indices)*4)
	for j := 0; j+2 < len(indices); j += 3 {
		v1, v2, v3 := indices[j], indices[j+1], indices[j+2]
		m12 := s.midpoint(v1, v2)
		m23 := s.midpoint(v2, v3)
		m31 := s.midpoint(v3, v1)
		out = append(out,
			v1, m12, m31,
			v2, m23, m12,
			v3, m31, m23,
			m12, m23, m31,
		)
	}
	return s.vertices, out
}

// Build generates a subdivided icosphere and scales each vertex by a factor from noise.
// The perturbation is applied after subdivision and is not renormalized.
// A nil noise leaves the unit sphere untouched.
func Build(level int, noise Noise) (*Mesh, error) {
	if level < 0 {
		return nil, fmt.Errorf("%w: icosphere subdivision level %d", core.ErrInvalidConfig, level)
	}

	vertices := icosahedronVertices()
	indices := append([]uint32(nil), icosahedronFaces...)
	for i := 0; i < level; i++ {
		vertices, indices = subdivide(vertices, indices)
	}

	if noise != nil {
		for i, v := range vertices {
			vertices[i] = v.Mul(noise.Factor(i, v))
		}
	}

	return &Mesh{Vertices: vertices, Indices: indices}, nil
}
