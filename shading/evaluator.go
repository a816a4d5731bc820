// Package shading is a CPU reference of the Blinn-Phong fragment stage in
// package materials. It evaluates one fragment at a time with the same
// light loop, ambient normalization and output selection as the GLSL, so
// shading results can be checked and previewed without a GPU.
package shading

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"shading-engine/core"
	"shading-engine/materials"
	"shading-engine/scene"
	"shading-engine/textures"
)

// Global light intensities of the fragment stage.
var (
	Ia = mgl32.Vec3{0.2, 0.2, 0.2}
	Id = mgl32.Vec3{1, 1, 1}
	Is = mgl32.Vec3{1, 1, 1}
)

// DissolveThreshold is the red value below which a dissolve-mapped
// fragment is discarded.
const DissolveThreshold = 0.001

// Fragment holds the interpolated vertex-stage outputs for one pixel.
// All vectors are in view space.
type Fragment struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
	UV        mgl32.Vec2
}

// FragmentFromVertex runs the vertex stage for v under modelView.
func FragmentFromVertex(v core.Vertex, modelView mgl32.Mat4) Fragment {
	mv3 := modelView.Mat3()
	return Fragment{
		Position:  mgl32.TransformCoordinate(v.Position, modelView),
		Normal:    mv3.Mul3x1(v.Normal.Normalize()),
		Tangent:   mv3.Mul3x1(v.Tangent.Normalize()),
		Bitangent: mv3.Mul3x1(v.Bitangent.Normalize()),
		UV:        v.UV,
	}
}

// TBN returns the view-to-tangent-space matrix of f.
func (f Fragment) TBN() mgl32.Mat3 {
	return mgl32.Mat3FromCols(f.Tangent, f.Bitangent, f.Normal).Transpose()
}

// Terms are the accumulated light contributions of one fragment, with the
// ambient sum already normalized.
type Terms struct {
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
}

// Evaluator shades fragments of one material under one frame's lights.
type Evaluator struct {
	Material materials.MaterialUniform
	Maps     [materials.NumSlots]Sampler
	Lights   scene.LightBlock
}

// NewEvaluator builds an evaluator from material data, sampling each
// present map with an ImageSampler.
func NewEvaluator(data *materials.MaterialData, lights scene.LightBlock) *Evaluator {
	e := &Evaluator{Material: data.Uniform(), Lights: lights}
	for slot, img := range [materials.NumSlots]*textures.Image{
		materials.SlotDiffuse:  data.MapDiffuse,
		materials.SlotNormal:   data.MapBump,
		materials.SlotSpecular: data.MapSpecular,
		materials.SlotDissolve: data.MapDissolve,
	} {
		if img != nil {
			e.Maps[slot] = ImageSampler{Image: img}
		}
	}
	return e
}

// SetMap installs s in slot and keeps the matching has-flag in step.
func (e *Evaluator) SetMap(slot materials.TextureSlot, s Sampler) {
	e.Maps[slot] = s
	present := s != nil
	switch slot {
	case materials.SlotDiffuse:
		e.Material.HasDiffuseMap = present
	case materials.SlotNormal:
		e.Material.HasNormalMap = present
	case materials.SlotSpecular:
		e.Material.HasSpecularMap = present
	case materials.SlotDissolve:
		e.Material.HasDissolveMap = present
	}
}

func (e *Evaluator) sample(slot materials.TextureSlot, st mgl32.Vec2) mgl32.Vec4 {
	if s := e.Maps[slot]; s != nil {
		return s.Sample(st)
	}
	return mgl32.Vec4{}
}

// Accumulate evaluates every point light, then every directional light,
// and sums their terms in that order. The ambient sum is divided by the
// point-light count when there is at least one point light.
func (e *Evaluator) Accumulate(f Fragment) Terms {
	st := mgl32.Vec2{f.UV.X(), 1 - f.UV.Y()}
	tbn := f.TBN()

	var sum Terms
	for _, p := range e.Lights.Point {
		a, d, s := e.light(p.PositionViewSpace.Sub(f.Position), f, tbn, st)
		sum.Ambient = sum.Ambient.Add(a)
		sum.Diffuse = sum.Diffuse.Add(d)
		sum.Specular = sum.Specular.Add(s)
	}
	for _, dl := range e.Lights.Directional {
		a, d, s := e.light(dl.DirectionViewSpace, f, tbn, st)
		sum.Ambient = sum.Ambient.Add(a)
		sum.Diffuse = sum.Diffuse.Add(d)
		sum.Specular = sum.Specular.Add(s)
	}
	// Same suspect policy as the fragment shader: only point lights count.
	if n := len(e.Lights.Point); n > 0 {
		sum.Ambient = sum.Ambient.Mul(1 / float32(n))
	}
	return sum
}

func (e *Evaluator) light(l mgl32.Vec3, f Fragment, tbn mgl32.Mat3, st mgl32.Vec2) (ambient, diffuse, spec mgl32.Vec3) {
	m := &e.Material
	n := f.Normal
	v := f.Position.Mul(-1)

	if m.HasNormalMap {
		l = tbn.Mul3x1(l).Normalize()
		v = tbn.Mul3x1(v).Normalize()

		bn := e.sample(materials.SlotNormal, st).Vec3().Mul(2).Sub(mgl32.Vec3{1, 1, 1})
		bn[0] *= m.BumpIntensity
		bn[1] *= m.BumpIntensity
		n = bn.Normalize()
	} else {
		l = l.Normalize()
		v = v.Normalize()
		n = n.Normalize()
	}

	ambient = mulVec(Ia, m.Ambient.Vec3())

	intensity := math32.Max(n.Dot(l), 0)
	if intensity > 0 {
		diffuse = mulVec(Id, m.Diffuse.Vec3()).Mul(intensity)
		h := l.Add(v).Normalize()
		spec = Is.Mul(math32.Pow(math32.Max(h.Dot(n), 0), m.SpecularExponent))
	}
	return ambient, diffuse, spec
}

// Shade returns the output color of f, or discard=true when the dissolve
// map cuts the fragment out. Outputs are chosen in order: normal-map debug,
// specular-map debug, diffuse-textured, then opaque red.
func (e *Evaluator) Shade(f Fragment) (color mgl32.Vec4, discard bool) {
	m := &e.Material
	st := mgl32.Vec2{f.UV.X(), 1 - f.UV.Y()}

	if m.HasDissolveMap && e.sample(materials.SlotDissolve, st).X() < DissolveThreshold {
		return mgl32.Vec4{}, true
	}

	t := e.Accumulate(f)

	switch {
	case m.DisplayNormalMap && m.HasNormalMap:
		return e.sample(materials.SlotNormal, st), false
	case m.DisplaySpecularMap && m.HasSpecularMap:
		return e.sample(materials.SlotSpecular, st), false
	case m.HasDiffuseMap:
		tex := e.sample(materials.SlotDiffuse, st)
		var specColor mgl32.Vec4
		if m.HasSpecularMap {
			specColor = e.sample(materials.SlotSpecular, st)
		}
		lit := t.Ambient.Add(t.Diffuse).Vec4(1)
		return mulVec4(lit, tex).Add(mulVec4(t.Specular.Vec4(1), specColor)), false
	}
	return mgl32.Vec4{1, 0, 0, 1}, false
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func mulVec4(a, b mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}
