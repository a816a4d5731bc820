package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}
)

// Vec4 returns the color as an RGBA vector.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

// RGB returns the color channels without alpha.
func (c Color) RGB() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

func ColorFromVec4(v mgl32.Vec4) Color {
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}
}

// Vertex matches the fixed attribute slots consumed by the shading program:
// 0=position, 1=normal, 2=uv, 3=tangent, 4=bitangent.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	UV        mgl32.Vec2
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
}

// VertexFloats is the number of float32 values one interleaved Vertex occupies.
const VertexFloats = 3 + 3 + 2 + 3 + 3

// AppendFloats appends the interleaved attribute data of v to dst.
func (v Vertex) AppendFloats(dst []float32) []float32 {
	return append(dst,
		v.Position[0], v.Position[1], v.Position[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.UV[0], v.UV[1],
		v.Tangent[0], v.Tangent[1], v.Tangent[2],
		v.Bitangent[0], v.Bitangent[1], v.Bitangent[2],
	)
}

type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Object is the pose capability shared by everything placed in the world.
type Object interface {
	GetPosition() mgl32.Vec3
	GetRotation() mgl32.Quat
	GetScale() mgl32.Vec3
	GetMatrix() mgl32.Mat4
}

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) GetPosition() mgl32.Vec3 { return t.Position }
func (t Transform) GetRotation() mgl32.Quat { return t.Rotation }
func (t Transform) GetScale() mgl32.Vec3    { return t.Scale }

// GetMatrix composes translation * rotation * scale.
func (t Transform) GetMatrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	rotation := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return translation.Mul4(rotation).Mul4(scale)
}

func (t Transform) GetForward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (t Transform) GetRight() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
}

func (t Transform) GetUp() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
}

type Viewport struct {
	X, Y, Width, Height int32
}

type ClearValue struct {
	Color Color
	Depth float32
}
