package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"shading-engine/core"
)

// Node is an element of the transform hierarchy. It implements core.Object
// with its local transform and caches its world matrix.
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool
	ID        uint32

	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

var _ core.Object = (*Node)(nil)

var nodeIDCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Visible:          true,
		ID:               nodeIDCounter.Add(1),
		worldMatrixDirty: true,
	}
}

// NewMeshNode creates a visible node carrying mesh.
func NewMeshNode(name string, mesh *Mesh) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	return n
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

// GetWorldMatrix returns parent world × local, recomputed only when dirty.
func (n *Node) GetWorldMatrix() mgl32.Mat4 {
	if n.worldMatrixDirty {
		local := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.GetWorldMatrix().Mul4(local)
		} else {
			n.worldMatrix = local
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) GetPosition() mgl32.Vec3 { return n.Transform.Position }
func (n *Node) GetRotation() mgl32.Quat { return n.Transform.Rotation }
func (n *Node) GetScale() mgl32.Vec3    { return n.Transform.Scale }
func (n *Node) GetMatrix() mgl32.Mat4   { return n.Transform.GetMatrix() }

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot mgl32.Quat) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

func (n *Node) Translate(delta mgl32.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.MarkWorldMatrixDirty()
}

// Rotate applies an axis-angle rotation (radians) in local space.
func (n *Node) Rotate(axis mgl32.Vec3, angle float32) {
	r := mgl32.QuatRotate(angle, axis.Normalize())
	n.Transform.Rotation = n.Transform.Rotation.Mul(r).Normalize()
	n.MarkWorldMatrixDirty()
}

// Traverse visits n and its descendants depth-first.
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find returns the first node named name, or nil.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
