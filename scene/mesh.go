package scene

import (
	"shading-engine/core"
	"shading-engine/materials"
)

// Mesh holds CPU-side vertex and index data in the fixed attribute layout.
// GPU upload is managed by the renderer.
type Mesh struct {
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	// Material describes the surface. If nil, materials.DefaultMaterialData is used.
	Material *materials.MaterialData

	LocalAABB AABB
}

// NewMesh builds a Mesh and pre-computes its local-space bounds.
func NewMesh(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	return &Mesh{
		Name:      name,
		Vertices:  vertices,
		Indices:   indices,
		LocalAABB: computeLocalAABB(vertices),
	}
}

// Interleave returns the vertex data as consecutive float32 attributes.
func (m *Mesh) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*core.VertexFloats)
	for _, v := range m.Vertices {
		out = v.AppendFloats(out)
	}
	return out
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}
