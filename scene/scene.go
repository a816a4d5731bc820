package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"shading-engine/core"
)

// Scene groups the node hierarchy with the active camera and the world-space
// lights submitted each frame.
type Scene struct {
	Root       *Node
	Camera     *PerspectiveCamera
	Lights     LightSet
	ClearColor core.Color
}

func NewScene() *Scene {
	return &Scene{
		Root:       NewNode("Root"),
		ClearColor: core.Color{R: 0.1, G: 0.1, B: 0.12, A: 1},
	}
}

func (s *Scene) SetCamera(camera *PerspectiveCamera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

func (s *Scene) AddPointLight(l PointLight) error {
	return s.Lights.AddPointLight(l)
}

func (s *Scene) AddDirectionalLight(l DirectionalLight) error {
	return s.Lights.AddDirectionalLight(l)
}

// GetVisibleNodes returns every visible node that carries a mesh, in
// depth-first order.
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node
	s.Root.Traverse(func(node *Node) {
		if node.Visible && node.Mesh != nil {
			visible = append(visible, node)
		}
	})
	return visible
}

// Bounds returns the world-space box around all visible meshes.
// ok is false when the scene has no geometry.
func (s *Scene) Bounds() (box AABB, ok bool) {
	for _, n := range s.GetVisibleNodes() {
		wb := n.Mesh.LocalAABB.Transform(n.GetWorldMatrix())
		if !ok {
			box, ok = wb, true
			continue
		}
		box = box.Union(wb)
	}
	return box, ok
}

// FrameBounds places the camera on its current viewing axis so that box
// fills the vertical field of view.
func (s *Scene) FrameBounds(box AABB) {
	if s.Camera == nil {
		return
	}
	c := s.Camera
	radius := box.Size().Len() / 2
	if radius == 0 {
		radius = 1
	}
	dist := radius / float32(tanHalf(c.FOV()))
	dir := c.Position.Sub(c.Target)
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 0, 1}
	}
	c.Target = box.Center()
	c.Position = c.Target.Add(dir.Normalize().Mul(dist))
	if far := dist + 2*radius; far > c.FarPlane() {
		_ = c.SetLens(c.FOV(), c.AspectRatio(), c.NearPlane(), far)
	}
	c.Update()
}
