package materials

import (
	"shading-engine/core"
	"shading-engine/textures"
)

// MaterialData describes a Blinn-Phong surface: constant colors, scalar
// parameters and up to four optional maps. A map is present when its image is
// non-nil; the matching has*Map flag is always derived from that, never stored.
type MaterialData struct {
	Name string

	Ambient  core.Color
	Diffuse  core.Color
	Specular core.Color

	SpecularExponent float32
	BumpIntensity    float32 // scales the tangent-space xy of normal-map samples
	TexLod           float32 // explicit diffuse-map LOD

	// Debug display toggles.
	DisplayNormalMap   bool
	DisplaySpecularMap bool

	MapDiffuse  *textures.Image
	MapBump     *textures.Image
	MapSpecular *textures.Image
	MapDissolve *textures.Image
}

// NewMaterialData creates an untextured material with the given diffuse color.
func NewMaterialData(name string, diffuse core.Color) *MaterialData {
	return &MaterialData{
		Name:             name,
		Ambient:          core.ColorWhite,
		Diffuse:          diffuse,
		Specular:         core.ColorWhite,
		SpecularExponent: 32,
		BumpIntensity:    1,
	}
}

// DefaultMaterialData returns a light grey material without maps.
func DefaultMaterialData() *MaterialData {
	return NewMaterialData("Default", core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1})
}

// TexturedMaterialData returns a white material sampling diffuse.
func TexturedMaterialData(name string, diffuse *textures.Image) *MaterialData {
	m := NewMaterialData(name, core.ColorWhite)
	m.MapDiffuse = diffuse
	return m
}

func (m *MaterialData) HasDiffuseMap() bool  { return m.MapDiffuse != nil }
func (m *MaterialData) HasNormalMap() bool   { return m.MapBump != nil }
func (m *MaterialData) HasSpecularMap() bool { return m.MapSpecular != nil }
func (m *MaterialData) HasDissolveMap() bool { return m.MapDissolve != nil }

// Uniform packs the material for the materialBuffer block.
func (m *MaterialData) Uniform() MaterialUniform {
	return MaterialUniform{
		Ambient:            m.Ambient.Vec4(),
		Diffuse:            m.Diffuse.Vec4(),
		Specular:           m.Specular.Vec4(),
		SpecularExponent:   m.SpecularExponent,
		BumpIntensity:      m.BumpIntensity,
		HasDiffuseMap:      m.HasDiffuseMap(),
		HasNormalMap:       m.HasNormalMap(),
		HasSpecularMap:     m.HasSpecularMap(),
		HasDissolveMap:     m.HasDissolveMap(),
		DisplayNormalMap:   m.DisplayNormalMap,
		DisplaySpecularMap: m.DisplaySpecularMap,
		TexLod:             m.TexLod,
	}
}

// Clone creates a shallow copy; images are shared.
func (m *MaterialData) Clone(newName string) *MaterialData {
	clone := *m
	clone.Name = newName
	return &clone
}

// RedMaterialData creates a red untextured material.
func RedMaterialData() *MaterialData {
	return NewMaterialData("Red", core.ColorRed)
}

// ShinyMaterialData creates a material with a tight highlight.
func ShinyMaterialData(name string, diffuse core.Color) *MaterialData {
	m := NewMaterialData(name, diffuse)
	m.SpecularExponent = 128
	return m
}
