package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskedPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 255, 255, 10})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func quadDocument(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}})
	nrm := modeler.WriteNormal(doc, [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 2, 3, 0})

	imgIdx, err := modeler.WriteImage(doc, "base", "image/png", bytes.NewReader(maskedPNG(t)))
	require.NoError(t, err)
	doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:      "leaf",
		AlphaMode: gltf.AlphaMask,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
		NormalTexture: &gltf.NormalTexture{Index: gltf.Index(0)},
	})

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "quad",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos, gltf.NORMAL: nrm, gltf.TEXCOORD_0: uv},
			Material:   gltf.Index(0),
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "leaf", Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

func TestConvertGLTF(t *testing.T) {
	res := convertGLTF(quadDocument(t), ".", fileImageLoader{})
	require.Len(t, res.Roots, 1)
	require.Len(t, res.Materials, 1)

	n := res.Roots[0]
	assert.Equal(t, "leaf", n.Name)
	require.NotNil(t, n.Mesh)
	assert.Equal(t, 2, n.Mesh.TriangleCount())

	// glTF v runs top-down; vertices are stored bottom-up.
	assert.Equal(t, float32(0), n.Mesh.Vertices[0].UV[1])
	assert.Equal(t, float32(1), n.Mesh.Vertices[2].UV[1])

	mat := n.Mesh.Material
	require.NotNil(t, mat)
	assert.Same(t, res.Materials[0], mat)
	require.NotNil(t, mat.MapDiffuse)
	assert.Equal(t, 2, mat.MapDiffuse.Width)
	assert.Same(t, mat.MapDiffuse, mat.MapBump)
	assert.Equal(t, float32(1), mat.BumpIntensity)

	require.NotNil(t, mat.MapDissolve)
	assert.Equal(t, uint8(255), mat.MapDissolve.At(0, 0).R)
	assert.Equal(t, uint8(0), mat.MapDissolve.At(1, 0).R)
}
