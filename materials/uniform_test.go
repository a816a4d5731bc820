package materials

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shading-engine/gfx/gfxtest"
)

func testUniform() MaterialUniform {
	return MaterialUniform{
		Ambient:            mgl32.Vec4{0.1, 0.2, 0.3, 0.4},
		Diffuse:            mgl32.Vec4{0.5, 0.6, 0.7, 0.8},
		Specular:           mgl32.Vec4{0.9, 1.0, 1.1, 1.2},
		SpecularExponent:   64,
		BumpIntensity:      0.75,
		HasDiffuseMap:      true,
		HasNormalMap:       false,
		HasSpecularMap:     true,
		HasDissolveMap:     false,
		DisplayNormalMap:   true,
		DisplaySpecularMap: false,
		TexLod:             2.5,
	}
}

func floatAt(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestMaterialUniformOffsets(t *testing.T) {
	b := testUniform().Marshal()
	require.Len(t, b, MaterialUniformSize)

	assert.Equal(t, float32(0.1), floatAt(b, 0))
	assert.Equal(t, float32(0.4), floatAt(b, 12))
	assert.Equal(t, float32(0.5), floatAt(b, 16))
	assert.Equal(t, float32(0.9), floatAt(b, 32))
	assert.Equal(t, float32(1.2), floatAt(b, 44))
	assert.Equal(t, float32(64), floatAt(b, 48))
	assert.Equal(t, float32(0.75), floatAt(b, 52))

	flags := []struct {
		off  int
		want uint32
	}{
		{56, 1}, {60, 0}, {64, 1}, {68, 0}, {72, 1}, {76, 0},
	}
	for _, f := range flags {
		assert.Equal(t, f.want, binary.LittleEndian.Uint32(b[f.off:]), "flag at offset %d", f.off)
	}

	assert.Equal(t, float32(2.5), floatAt(b, 80))
	for i := 84; i < MaterialUniformSize; i++ {
		assert.Zero(t, b[i], "padding byte %d", i)
	}
}

func TestMaterialUniformRoundTrip(t *testing.T) {
	want := testUniform()
	got, err := UnmarshalMaterialUniform(want.Marshal())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnmarshalMaterialUniformShort(t *testing.T) {
	_, err := UnmarshalMaterialUniform(make([]byte, 80))
	assert.Error(t, err)
}

func TestMarshalMatrices(t *testing.T) {
	view := mgl32.Translate3D(1, 2, 3)
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	b := MarshalMatrices(view, proj)
	require.Len(t, b, MatrixBlockSize)

	// Column-major: translation lives in elements 12..14.
	assert.Equal(t, float32(1), floatAt(b, 12*4))
	assert.Equal(t, float32(3), floatAt(b, 14*4))
	assert.Equal(t, proj[11], floatAt(b, 64+11*4))
}

func TestMaterialDataUniformFlagsFollowMaps(t *testing.T) {
	m := DefaultMaterialData()
	u := m.Uniform()
	assert.False(t, u.HasDiffuseMap)
	assert.False(t, u.HasNormalMap)
	assert.False(t, u.HasSpecularMap)
	assert.False(t, u.HasDissolveMap)

	m = texturedData(t, "flags", true, false, true, false)
	u = m.Uniform()
	assert.True(t, u.HasDiffuseMap)
	assert.False(t, u.HasNormalMap)
	assert.True(t, u.HasSpecularMap)
	assert.False(t, u.HasDissolveMap)
}

func TestMaterialBlockMatchesShader(t *testing.T) {
	members, size, err := gfxtest.Std140Layout(FragmentShaderSource(), "uniform "+BlockMaterial)
	require.NoError(t, err)

	want := []gfxtest.Member{
		{Type: "vec4", Name: "mambient", Offset: OffsetAmbient},
		{Type: "vec4", Name: "mdiffuse", Offset: OffsetDiffuse},
		{Type: "vec4", Name: "mspecular", Offset: OffsetSpecular},
		{Type: "float", Name: "specularExponent", Offset: OffsetSpecularExponent},
		{Type: "float", Name: "bumpIntensity", Offset: OffsetBumpIntensity},
		{Type: "bool", Name: "hasDiffuseMap", Offset: OffsetHasDiffuseMap},
		{Type: "bool", Name: "hasNormalMap", Offset: OffsetHasNormalMap},
		{Type: "bool", Name: "hasSpecularMap", Offset: OffsetHasSpecularMap},
		{Type: "bool", Name: "hasDissolveMap", Offset: OffsetHasDissolveMap},
		{Type: "bool", Name: "displayNormalMap", Offset: OffsetDisplayNormalMap},
		{Type: "bool", Name: "displaySpecularMap", Offset: OffsetDisplaySpecularMap},
		{Type: "float", Name: "texLod", Offset: OffsetTexLod},
	}
	assert.Equal(t, want, members)
	assert.Equal(t, MaterialUniformSize, size)
}

func TestMatrixBlocksMatchShader(t *testing.T) {
	blocks := []struct {
		name        string
		first, next string
	}{
		{BlockModelMatrices, "modelMatrix", "normalMatrix"},
		{BlockSceneMatrices, "viewMatrix", "projectionMatrix"},
	}
	for _, b := range blocks {
		t.Run(b.name, func(t *testing.T) {
			members, size, err := gfxtest.Std140Layout(VertexShaderSource(), "uniform "+b.name)
			require.NoError(t, err)
			assert.Equal(t, []gfxtest.Member{
				{Type: "mat4", Name: b.first, Offset: 0},
				{Type: "mat4", Name: b.next, Offset: 64},
			}, members)
			assert.Equal(t, MatrixBlockSize, size)
		})
	}
}

func TestStd140LayoutRejectsUnknownMembers(t *testing.T) {
	_, _, err := gfxtest.Std140Layout("uniform b {\n    PointLight l[4];\n};", "uniform b")
	assert.Error(t, err)
	_, _, err = gfxtest.Std140Layout(FragmentShaderSource(), "uniform missing")
	assert.Error(t, err)
}
