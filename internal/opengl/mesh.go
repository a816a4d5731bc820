package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"shading-engine/core"
	"shading-engine/gfx"
)

// gpuMesh holds the OpenGL buffer objects for an uploaded mesh.
type gpuMesh struct {
	VAO         uint32
	VBO         uint32
	EBO         uint32
	IndexCount  int32
	VertexCount int32
	HasIndices  bool
}

// attribute slot, component count, float offset inside one vertex
var vertexAttribs = []struct {
	slot   uint32
	size   int32
	offset int
}{
	{gfx.AttribPosition, 3, 0},
	{gfx.AttribNormal, 3, 3},
	{gfx.AttribUV, 2, 6},
	{gfx.AttribTangent, 3, 8},
	{gfx.AttribBitangent, 3, 11},
}

// CreateMesh uploads interleaved vertices (core.VertexFloats per vertex) and
// optional triangle indices into a new VAO.
func (d *Device) CreateMesh(vertices []float32, indices []uint32) (gfx.MeshID, error) {
	if len(vertices) == 0 || len(vertices)%core.VertexFloats != 0 {
		return 0, fmt.Errorf("vertex data length %d is not a multiple of %d", len(vertices), core.VertexFloats)
	}

	const stride = int32(core.VertexFloats * 4)

	m := &gpuMesh{
		IndexCount:  int32(len(indices)),
		VertexCount: int32(len(vertices) / core.VertexFloats),
		HasIndices:  len(indices) > 0,
	}

	gl.GenVertexArrays(1, &m.VAO)
	gl.GenBuffers(1, &m.VBO)
	gl.BindVertexArray(m.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	for _, a := range vertexAttribs {
		gl.EnableVertexAttribArray(a.slot)
		gl.VertexAttribPointer(a.slot, a.size, gl.FLOAT, false, stride, gl.PtrOffset(a.offset*4))
	}

	if m.HasIndices {
		gl.GenBuffers(1, &m.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	id := gfx.MeshID(m.VAO)
	d.meshes[id] = m
	return id, nil
}

func (d *Device) DrawMesh(id gfx.MeshID) {
	m, ok := d.meshes[id]
	if !ok {
		return
	}
	gl.BindVertexArray(m.VAO)
	if m.HasIndices {
		gl.DrawElements(gl.TRIANGLES, m.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, m.VertexCount)
	}
	gl.BindVertexArray(0)
}

// DeleteMesh frees the GPU buffers of a mesh.
func (d *Device) DeleteMesh(id gfx.MeshID) {
	m, ok := d.meshes[id]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &m.VAO)
	gl.DeleteBuffers(1, &m.VBO)
	if m.HasIndices {
		gl.DeleteBuffers(1, &m.EBO)
	}
	delete(d.meshes, id)
}
