package scene

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shading-engine/textures"
)

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

const quadOBJ = `# unit quad
mtllib quad.mtl
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
o Quad
usemtl brick
f 1/1/1 2/2/1 3/3/1 4/4/1
`

const quadMTL = `newmtl brick
Ka 0.1 0.1 0.1
Kd 0.6 0.5 0.4
Ks 0.9 0.9 0.9
Ns 96
map_Kd brick.png
map_bump -bm 0.4 brick_n.png
map_Ks brick_s.png
map_d -clamp on brick_d.png
`

func TestLoadOBJWithMaterialMaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte(quadMTL), 0o644))
	writePNG(t, filepath.Join(dir, "brick.png"), color.RGBA{200, 100, 50, 255})
	writePNG(t, filepath.Join(dir, "brick_n.png"), color.RGBA{128, 128, 255, 255})
	writePNG(t, filepath.Join(dir, "brick_s.png"), color.RGBA{255, 255, 255, 255})
	writePNG(t, filepath.Join(dir, "brick_d.png"), color.RGBA{255, 255, 255, 255})

	meshes, err := LoadOBJ(filepath.Join(dir, "quad.obj"), nil)
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	m := meshes[0]
	assert.Equal(t, "Quad", m.Name)
	assert.Len(t, m.Vertices, 4)
	assert.Equal(t, 2, m.TriangleCount())
	for _, v := range m.Vertices {
		assert.InDeltaSlice(t, []float32{1, 0, 0}, v.Tangent[:], 1e-5)
	}

	mat := m.Material
	require.NotNil(t, mat)
	assert.Equal(t, "brick", mat.Name)
	assert.InDelta(t, 0.6, mat.Diffuse.R, 1e-6)
	assert.InDelta(t, 0.1, mat.Ambient.G, 1e-6)
	assert.InDelta(t, 0.9, mat.Specular.B, 1e-6)
	assert.Equal(t, float32(96), mat.SpecularExponent)
	assert.InDelta(t, 0.4, mat.BumpIntensity, 1e-6)

	require.NotNil(t, mat.MapDiffuse)
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, mat.MapDiffuse.At(0, 0))
	assert.NotNil(t, mat.MapBump)
	assert.NotNil(t, mat.MapSpecular)
	assert.NotNil(t, mat.MapDissolve)
	assert.True(t, strings.HasSuffix(mat.MapDissolve.Name, "brick_d.png"))
}

func TestLoadOBJMissingMapIsSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.mtl"), []byte("newmtl brick\nmap_Kd nowhere.png\n"), 0o644))

	meshes, err := LoadOBJ(filepath.Join(dir, "quad.obj"), textures.NewManager(nil))
	require.NoError(t, err)
	require.NotNil(t, meshes[0].Material)
	assert.Nil(t, meshes[0].Material.MapDiffuse)
	assert.False(t, meshes[0].Material.HasDiffuseMap())
}

func TestParseOBJGeneratesNormalsAndSplitsMaterials(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
usemtl a
f 1 2 3
usemtl b
f 2 4 3
`
	meshes, err := parseOBJ(strings.NewReader(src), ".", fileImageLoader{})
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	for _, m := range meshes {
		for _, v := range m.Vertices {
			assert.InDeltaSlice(t, []float32{0, 0, 1}, v.Normal[:], 1e-5)
		}
		assert.Nil(t, m.Material, "unknown materials stay unset")
	}
}

func TestParseOBJNoGeometry(t *testing.T) {
	_, err := parseOBJ(strings.NewReader("# empty\n"), ".", fileImageLoader{})
	assert.Error(t, err)
}

func TestParseFaceVertex(t *testing.T) {
	assert.Equal(t, [3]int{0, -1, -1}, parseFaceVertex("1", 4, 0, 0))
	assert.Equal(t, [3]int{1, 2, -1}, parseFaceVertex("2/3", 4, 4, 0))
	assert.Equal(t, [3]int{1, -1, 0}, parseFaceVertex("2//1", 4, 0, 1))
	assert.Equal(t, [3]int{3, 3, 0}, parseFaceVertex("-1/-1/-1", 4, 4, 1))
}

func TestParseMapStatement(t *testing.T) {
	opts, file := parseMapStatement(strings.Fields("-bm 0.3 -o 0.1 0.2 -clamp on textures/my bump.png"))
	assert.Equal(t, []string{"0.3"}, opts["-bm"])
	assert.Equal(t, []string{"0.1", "0.2"}, opts["-o"])
	assert.Equal(t, []string{"on"}, opts["-clamp"])
	assert.Equal(t, "textures/my bump.png", file)

	_, file = parseMapStatement([]string{"plain.png"})
	assert.Equal(t, "plain.png", file)
}
