package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ComputeTangents fills the tangent and bitangent attributes of m from its
// positions and UVs. Triangles with zero UV area contribute nothing; vertices
// left without a usable tangent get an arbitrary frame around the normal.
func ComputeTangents(m *Mesh) {
	for i := range m.Vertices {
		m.Vertices[i].Tangent = mgl32.Vec3{}
		m.Vertices[i].Bitangent = mgl32.Vec3{}
	}

	accum := func(i0, i1, i2 uint32) {
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		d1 := v1.UV.Sub(v0.UV)
		d2 := v2.UV.Sub(v0.UV)

		denom := d1[0]*d2[1] - d2[0]*d1[1]
		if denom == 0 {
			return
		}
		r := 1 / denom

		t := e1.Mul(d2[1] * r).Sub(e2.Mul(d1[1] * r))
		b := e2.Mul(d1[0] * r).Sub(e1.Mul(d2[0] * r))

		for _, i := range [3]uint32{i0, i1, i2} {
			m.Vertices[i].Tangent = m.Vertices[i].Tangent.Add(t)
			m.Vertices[i].Bitangent = m.Vertices[i].Bitangent.Add(b)
		}
	}

	if len(m.Indices) > 0 {
		for i := 0; i+2 < len(m.Indices); i += 3 {
			accum(m.Indices[i], m.Indices[i+1], m.Indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(m.Vertices); i += 3 {
			accum(uint32(i), uint32(i+1), uint32(i+2))
		}
	}

	// Gram-Schmidt against the normal.
	for i := range m.Vertices {
		v := &m.Vertices[i]
		n := v.Normal
		t := v.Tangent.Sub(n.Mul(n.Dot(v.Tangent)))
		if t.LenSqr() < 1e-8 {
			if abs32(n[0]) < 0.9 {
				t = mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n[0]))
			} else {
				t = mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n[1]))
			}
		}
		v.Tangent = t.Normalize()

		b := v.Bitangent
		if b.LenSqr() < 1e-8 {
			b = n.Cross(v.Tangent)
		}
		v.Bitangent = b.Normalize()
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
