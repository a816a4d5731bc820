package shading

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"shading-engine/materials"
	"shading-engine/scene"
)

type triangle struct {
	a, b, c Fragment
	e       *Evaluator
}

// Render ray-casts mesh, placed by model, through cam and shades every hit
// with e. Pixels with no hit or a discarded fragment keep background.
func Render(cam *scene.PerspectiveCamera, mesh *scene.Mesh, model mgl32.Mat4, e *Evaluator, width, height int, background color.RGBA) *image.RGBA {
	tris := appendTriangles(nil, mesh, cam.GetViewMatrix().Mul4(model), e)
	return raycast(cam, tris, width, height, background)
}

// RenderScene shades every visible node of s under its lights with one
// evaluator per material. Meshes without a material use
// materials.DefaultMaterialData.
func RenderScene(s *scene.Scene, width, height int) (*image.RGBA, error) {
	if s.Camera == nil {
		return nil, fmt.Errorf("render scene: no camera")
	}
	cam := s.Camera
	cam.Update()
	block, err := s.Lights.ToViewSpace(cam.GetViewMatrix())
	if err != nil {
		return nil, err
	}

	fallback := materials.DefaultMaterialData()
	evaluators := make(map[*materials.MaterialData]*Evaluator)
	var tris []triangle
	for _, node := range s.GetVisibleNodes() {
		data := node.Mesh.Material
		if data == nil {
			data = fallback
		}
		e, ok := evaluators[data]
		if !ok {
			e = NewEvaluator(data, block)
			evaluators[data] = e
		}
		tris = appendTriangles(tris, node.Mesh, cam.GetViewMatrix().Mul4(node.GetWorldMatrix()), e)
	}

	c := s.ClearColor
	bg := toRGBA(mgl32.Vec4{c.R, c.G, c.B, c.A})
	return raycast(cam, tris, width, height, bg), nil
}

func appendTriangles(tris []triangle, mesh *scene.Mesh, modelView mgl32.Mat4, e *Evaluator) []triangle {
	frags := make([]Fragment, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		frags[i] = FragmentFromVertex(v, modelView)
	}
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		tris = append(tris, triangle{frags[mesh.Indices[i]], frags[mesh.Indices[i+1]], frags[mesh.Indices[i+2]], e})
	}
	return tris
}

// raycast tests every triangle per pixel; it is meant for small scenes.
func raycast(cam *scene.PerspectiveCamera, tris []triangle, width, height int, background color.RGBA) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = background.R, background.G, background.B, background.A
	}

	tanHalf := math32.Tan(cam.FOV() / 2)
	aspect := cam.AspectRatio()
	near, far := cam.NearPlane(), cam.FarPlane()

	for py := 0; py < height; py++ {
		ndcY := 1 - 2*(float32(py)+0.5)/float32(height)
		for px := 0; px < width; px++ {
			ndcX := 2*(float32(px)+0.5)/float32(width) - 1
			dir := mgl32.Vec3{ndcX * tanHalf * aspect, ndcY * tanHalf, -1}

			best := far
			var hit *triangle
			var hu, hv float32
			for i := range tris {
				t, u, v, ok := intersect(dir, &tris[i])
				if ok && t >= near && t < best {
					best, hit, hu, hv = t, &tris[i], u, v
				}
			}
			if hit == nil {
				continue
			}

			c, discard := hit.e.Shade(interpolate(hit, 1-hu-hv, hu, hv))
			if discard {
				continue
			}
			out.SetRGBA(px, py, toRGBA(c))
		}
	}
	return out
}

// intersect is Möller-Trumbore for a ray from the view-space origin. Since
// dir has z = -1, t is the view depth of the hit.
func intersect(dir mgl32.Vec3, tri *triangle) (t, u, v float32, ok bool) {
	p0 := tri.a.Position
	e1 := tri.b.Position.Sub(p0)
	e2 := tri.c.Position.Sub(p0)

	pvec := dir.Cross(e2)
	det := e1.Dot(pvec)
	if math32.Abs(det) < 1e-8 {
		return 0, 0, 0, false
	}
	inv := 1 / det

	tvec := p0.Mul(-1)
	u = tvec.Dot(pvec) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	qvec := tvec.Cross(e1)
	v = dir.Dot(qvec) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(qvec) * inv
	return t, u, v, t > 0
}

func interpolate(tri *triangle, w0, w1, w2 float32) Fragment {
	mix3 := func(a, b, c mgl32.Vec3) mgl32.Vec3 {
		return a.Mul(w0).Add(b.Mul(w1)).Add(c.Mul(w2))
	}
	a, b, c := tri.a, tri.b, tri.c
	return Fragment{
		Position:  mix3(a.Position, b.Position, c.Position),
		Normal:    mix3(a.Normal, b.Normal, c.Normal),
		Tangent:   mix3(a.Tangent, b.Tangent, c.Tangent),
		Bitangent: mix3(a.Bitangent, b.Bitangent, c.Bitangent),
		UV:        a.UV.Mul(w0).Add(b.UV.Mul(w1)).Add(c.UV.Mul(w2)),
	}
}

func toRGBA(c mgl32.Vec4) color.RGBA {
	q := func(f float32) uint8 {
		return uint8(mgl32.Clamp(f, 0, 1)*255 + 0.5)
	}
	return color.RGBA{R: q(c[0]), G: q(c[1]), B: q(c[2]), A: q(c[3])}
}
