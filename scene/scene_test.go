package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadTangentFrame(t *testing.T) {
	q := CreateQuad(2)
	for _, v := range q.Vertices {
		assert.InDeltaSlice(t, []float32{1, 0, 0}, v.Tangent[:], 1e-5)
		assert.InDeltaSlice(t, []float32{0, 1, 0}, v.Bitangent[:], 1e-5)
		assert.InDeltaSlice(t, []float32{0, 0, 1}, v.Normal[:], 1e-5)
	}
	assert.Equal(t, 2, q.TriangleCount())
	assert.Equal(t, mgl32.Vec3{-1, -1, 0}, q.LocalAABB.Min)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, q.LocalAABB.Max)
}

func TestTangentsOrthogonalToNormals(t *testing.T) {
	for _, m := range []*Mesh{CreateCube(1), CreateSphere(1, 12, 8), CreatePlane(4, 4, 3)} {
		for i, v := range m.Vertices {
			assert.InDelta(t, 0, v.Tangent.Dot(v.Normal), 1e-4, "%s vertex %d", m.Name, i)
			assert.InDelta(t, 1, v.Tangent.Len(), 1e-4, "%s vertex %d", m.Name, i)
		}
	}
}

func TestMeshInterleave(t *testing.T) {
	q := CreateQuad(1)
	data := q.Interleave()
	require.Len(t, data, 4*14)
	// Second vertex: position, normal, uv.
	assert.Equal(t, []float32{0.5, -0.5, 0, 0, 0, 1, 1, 0}, data[14:22])
}

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)

	parent.SetPosition(mgl32.Vec3{0, 0, -10})
	child.SetPosition(mgl32.Vec3{1, 0, 0})
	p := child.GetWorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.InDeltaSlice(t, []float32{1, 0, -10}, p[:], 1e-5)

	parent.Rotate(mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(90))
	p = child.GetWorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.InDeltaSlice(t, []float32{0, 0, -11}, p[:], 1e-5)

	assert.Same(t, child, parent.Find("child"))
	parent.RemoveChild(child)
	assert.Nil(t, parent.Find("child"))
	assert.Nil(t, child.Parent)
}

func TestFrustumCulling(t *testing.T) {
	c, err := NewPerspectiveCamera(mgl32.DegToRad(60), 1, 0.1, 100)
	require.NoError(t, err)
	c.Position = mgl32.Vec3{}
	c.Target = mgl32.Vec3{0, 0, -1}
	c.Update()
	f := FrustumFromVP(c.GetViewProjectionMatrix())

	in := AABB{Min: mgl32.Vec3{-1, -1, -11}, Max: mgl32.Vec3{1, 1, -9}}
	behind := AABB{Min: mgl32.Vec3{-1, -1, 9}, Max: mgl32.Vec3{1, 1, 11}}
	beyond := AABB{Min: mgl32.Vec3{-1, -1, -300}, Max: mgl32.Vec3{1, 1, -200}}
	assert.True(t, in.IntersectsFrustum(&f))
	assert.False(t, behind.IntersectsFrustum(&f))
	assert.False(t, beyond.IntersectsFrustum(&f))
}

func TestSceneBoundsAndFraming(t *testing.T) {
	s := NewScene()
	c, err := NewPerspectiveCamera(mgl32.DegToRad(60), 1, 0.1, 10)
	require.NoError(t, err)
	s.SetCamera(c)

	_, ok := s.Bounds()
	assert.False(t, ok)

	n := NewMeshNode("cube", CreateCube(2))
	n.SetPosition(mgl32.Vec3{5, 0, 0})
	s.AddNode(n)

	box, ok := s.Bounds()
	require.True(t, ok)
	center := box.Center()
	assert.InDeltaSlice(t, []float32{5, 0, 0}, center[:], 1e-5)

	s.FrameBounds(box)
	assert.InDeltaSlice(t, []float32{5, 0, 0}, c.Target[:], 1e-5)
	f := FrustumFromVP(c.GetViewProjectionMatrix())
	assert.True(t, box.IntersectsFrustum(&f))
	assert.Greater(t, c.FarPlane(), c.Position.Sub(c.Target).Len())
}
