package scene

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"shading-engine/core"
	"shading-engine/internal/logger"
	"shading-engine/materials"
	"shading-engine/textures"
)

// GLTFResult holds the node hierarchy loaded from a .glb or .gltf file.
type GLTFResult struct {
	Roots     []*Node // top-level nodes; add each with Scene.AddNode
	Materials []*materials.MaterialData
}

// LoadGLTF opens a .glb or .gltf file and converts it to nodes, meshes and
// Blinn-Phong material data. Base color maps become diffuse maps, normal
// textures become bump maps (scale → bump intensity) and alphaMode MASK is
// turned into a dissolve map thresholded at the alpha cutoff.
func LoadGLTF(path string, images ImageLoader) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	if images == nil {
		images = fileImageLoader{}
	}
	return convertGLTF(doc, filepath.Dir(path), images), nil
}

func convertGLTF(doc *gltf.Document, dir string, images ImageLoader) *GLTFResult {
	result := &GLTFResult{}
	log := logger.Log.With(zap.String("loader", "gltf"))

	// Textures
	texCache := make([]*textures.Image, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		img, err := loadGLTFImage(doc, *gt.Source, dir, images)
		if err != nil {
			log.Warn("image skipped", zap.Int("image", *gt.Source), zap.Error(err))
			continue
		}
		texCache[i] = img
	}
	texture := func(idx int) *textures.Image {
		if idx >= 0 && idx < len(texCache) {
			return texCache[idx]
		}
		return nil
	}

	// Materials
	matCache := make([]*materials.MaterialData, len(doc.Materials))
	for i, gm := range doc.Materials {
		name := gm.Name
		if name == "" {
			name = fmt.Sprintf("gltf_mat_%d", i)
		}
		mat := materials.DefaultMaterialData().Clone(name)

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Diffuse = core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
			mat.Ambient = mat.Diffuse
			if pbr.BaseColorTexture != nil {
				mat.MapDiffuse = texture(pbr.BaseColorTexture.Index)
			}
			// Metallic-roughness approximated as a Blinn-Phong highlight.
			roughness := float32(pbr.RoughnessFactorOrDefault())
			metallic := float32(pbr.MetallicFactorOrDefault())
			mat.SpecularExponent = (1-roughness)*(1-roughness)*128 + 1
			s := 0.04 + metallic*0.66
			mat.Specular = core.Color{R: s, G: s, B: s, A: 1}
		}

		if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
			mat.MapBump = texture(*nt.Index)
			mat.BumpIntensity = float32(nt.ScaleOrDefault())
		}

		if gm.AlphaMode == gltf.AlphaMask && mat.MapDiffuse != nil {
			mat.MapDissolve = textures.NewAlphaMask(mat.MapDiffuse.Name+"_mask", mat.MapDiffuse, float32(gm.AlphaCutoffOrDefault()))
		}
		matCache[i] = mat
		result.Materials = append(result.Materials, mat)
	}

	// Mesh primitives
	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				log.Warn("primitive skipped", zap.Int("mesh", mi), zap.Int("primitive", pi), zap.Error(err))
				continue
			}
			ComputeTangents(m)
			if prim.Material != nil && *prim.Material < len(matCache) {
				m.Material = matCache[*prim.Material]
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	// Nodes
	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)

		t := gn.TranslationOrDefault()
		sc := gn.ScaleOrDefault()
		r := gn.RotationOrDefault() // x, y, z, w
		n.Transform = core.Transform{
			Position: mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])},
			Rotation: mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}},
			Scale:    mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])},
		}
		n.MarkWorldMatrixDirty()

		if gn.Mesh != nil && *gn.Mesh < len(meshPrims) {
			prims := meshPrims[*gn.Mesh]
			switch len(prims) {
			case 0:
			case 1:
				n.Mesh = prims[0]
			default:
				for pi, p := range prims {
					n.AddChild(NewMeshNode(fmt.Sprintf("%s_prim%d", name, pi), p))
				}
			}
		}
		nodes[i] = n
	}

	hasParent := make([]bool, len(nodes))
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(nodes) {
				nodes[i].AddChild(nodes[c])
				hasParent[c] = true
			}
		}
	}

	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, rootIdx := range doc.Scenes[*doc.Scene].Nodes {
			if rootIdx < len(nodes) {
				result.Roots = append(result.Roots, nodes[rootIdx])
			}
		}
	} else {
		for i, n := range nodes {
			if !hasParent[i] {
				result.Roots = append(result.Roots, n)
			}
		}
	}
	return result
}

func loadGLTFImage(doc *gltf.Document, idx int, dir string, images ImageLoader) (*textures.Image, error) {
	img := doc.Images[idx]
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("gltf_img_%d", idx)
	}

	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("buffer view: %w", err)
		}
		return textures.DecodeImage(name, bytes.NewReader(raw))
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("embedded data: %w", err)
		}
		return textures.DecodeImage(name, bytes.NewReader(raw))
	case img.URI != "":
		return images.Load(filepath.Join(dir, filepath.FromSlash(img.URI)))
	}
	return nil, fmt.Errorf("image %q has no data", name)
}

// loadGLTFPrimitive converts one glTF mesh primitive into a Mesh. glTF puts
// the UV origin at the top-left, so v is flipped to the bottom-left
// convention the shading program samples with.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("unsupported primitive mode %v", prim.Mode)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3(normals[i])
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], 1 - uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(verts))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	m := NewMesh(name, verts, indices)
	if len(normals) == 0 {
		generateNormals(m.Vertices, m.Indices)
	}
	return m, nil
}
