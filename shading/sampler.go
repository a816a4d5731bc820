package shading

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"shading-engine/textures"
)

// Sampler returns the normalized RGBA value at texture coordinate st.
// t=0 addresses the first row of the uploaded image.
type Sampler interface {
	Sample(st mgl32.Vec2) mgl32.Vec4
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(st mgl32.Vec2) mgl32.Vec4

func (f SamplerFunc) Sample(st mgl32.Vec2) mgl32.Vec4 { return f(st) }

// Constant samples the same value everywhere.
func Constant(c mgl32.Vec4) Sampler {
	return SamplerFunc(func(mgl32.Vec2) mgl32.Vec4 { return c })
}

// ImageSampler does nearest-texel lookups with repeat wrapping. It always
// reads the base level; texLod has no effect on the CPU. An empty image
// samples as transparent black.
type ImageSampler struct {
	Image *textures.Image
}

func (s ImageSampler) Sample(st mgl32.Vec2) mgl32.Vec4 {
	img := s.Image
	if img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pixels) < img.Width*img.Height*4 {
		return mgl32.Vec4{}
	}
	x := texel(st.X(), img.Width)
	y := texel(st.Y(), img.Height)
	c := img.At(x, y)
	return mgl32.Vec4{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

func texel(coord float32, size int) int {
	f := coord - math32.Floor(coord)
	i := int(f * float32(size))
	if i >= size {
		i = size - 1
	}
	return i
}
