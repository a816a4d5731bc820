package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"shading-engine/core"
	"shading-engine/internal/logger"
	"shading-engine/materials"
	"shading-engine/textures"
)

// ImageLoader resolves texture paths referenced by model files.
// *textures.Manager implements it with a path cache.
type ImageLoader interface {
	Load(path string) (*textures.Image, error)
}

type fileImageLoader struct{}

func (fileImageLoader) Load(path string) (*textures.Image, error) {
	return textures.LoadImage(path)
}

// objFace is an already-triangulated face.
type objFace struct {
	vIdx, vtIdx, vnIdx [3]int // 0-based position / UV / normal indices (-1 = absent)
}

type objObject struct {
	name    string
	matName string
	faces   []objFace
}

// LoadOBJ parses a Wavefront .obj file and returns one Mesh per object or
// group, with tangents computed. Materials from "mtllib" files are attached;
// their maps are loaded through images, or straight from disk when nil.
func LoadOBJ(path string, images ImageLoader) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	if images == nil {
		images = fileImageLoader{}
	}
	meshes, err := parseOBJ(f, filepath.Dir(path), images)
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}
	return meshes, nil
}

func parseOBJ(r io.Reader, dir string, images ImageLoader) ([]*Mesh, error) {
	var positions, normals []mgl32.Vec3
	var uvs []mgl32.Vec2

	mats := map[string]*materials.MaterialData{}

	var objects []objObject
	cur := &objObject{name: "default"}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if v, ok := parseVec3(fields[1:]); ok {
				positions = append(positions, v)
			}
		case "vn":
			if v, ok := parseVec3(fields[1:]); ok {
				normals = append(normals, v)
			}
		case "vt":
			if len(fields) < 3 {
				continue
			}
			u, _ := strconv.ParseFloat(fields[1], 32)
			v, _ := strconv.ParseFloat(fields[2], 32)
			uvs = append(uvs, mgl32.Vec2{float32(u), float32(v)})

		case "o", "g":
			if len(cur.faces) > 0 {
				objects = append(objects, *cur)
			}
			name := "default"
			if len(fields) > 1 {
				name = fields[1]
			}
			cur = &objObject{name: name, matName: cur.matName}

		case "usemtl":
			if len(fields) > 1 {
				if len(cur.faces) > 0 && cur.matName != fields[1] {
					objects = append(objects, *cur)
					cur = &objObject{name: cur.name + "_" + fields[1]}
				}
				cur.matName = fields[1]
			}

		case "mtllib":
			for _, lib := range fields[1:] {
				loaded, err := loadMTL(filepath.Join(dir, lib), dir, images)
				if err != nil {
					logger.Log.Warn("skipping material library", zap.String("path", lib), zap.Error(err))
					continue
				}
				for k, v := range loaded {
					mats[k] = v
				}
			}

		case "f":
			if len(fields) < 4 {
				continue
			}
			fverts := make([][3]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				fverts = append(fverts, parseFaceVertex(tok, len(positions), len(uvs), len(normals)))
			}
			// Fan triangulation.
			for i := 1; i+1 < len(fverts); i++ {
				f0, f1, f2 := fverts[0], fverts[i], fverts[i+1]
				cur.faces = append(cur.faces, objFace{
					vIdx:  [3]int{f0[0], f1[0], f2[0]},
					vtIdx: [3]int{f0[1], f1[1], f2[1]},
					vnIdx: [3]int{f0[2], f1[2], f2[2]},
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	if len(cur.faces) > 0 {
		objects = append(objects, *cur)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("no geometry found")
	}

	meshes := make([]*Mesh, 0, len(objects))
	for _, obj := range objects {
		mesh := buildMeshFromOBJ(obj.name, obj.faces, positions, normals, uvs)
		if mat, ok := mats[obj.matName]; ok {
			mesh.Material = mat
		}
		ComputeTangents(mesh)
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func parseVec3(fields []string) (mgl32.Vec3, bool) {
	if len(fields) < 3 {
		return mgl32.Vec3{}, false
	}
	var v mgl32.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec3{}, false
		}
		v[i] = float32(f)
	}
	return v, true
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn" into 0-based
// indices, -1 when absent. Negative OBJ indices count back from the end.
func parseFaceVertex(tok string, nv, nvt, nvn int) [3]int {
	parseIdx := func(s string, n int) int {
		if s == "" {
			return -1
		}
		i, err := strconv.Atoi(s)
		switch {
		case err != nil:
			return -1
		case i > 0:
			return i - 1
		case i < 0:
			return n + i
		}
		return -1
	}
	res := [3]int{-1, -1, -1}
	counts := [3]int{nv, nvt, nvn}
	for i, part := range strings.SplitN(tok, "/", 3) {
		res[i] = parseIdx(part, counts[i])
	}
	return res
}

// buildMeshFromOBJ converts face data into a deduplicated Mesh.
func buildMeshFromOBJ(name string, faces []objFace, positions, normals []mgl32.Vec3, uvs []mgl32.Vec2) *Mesh {
	vertMap := map[[3]int]uint32{}
	var vertices []core.Vertex
	var indices []uint32

	hasNormals := true
	for _, face := range faces {
		for c := 0; c < 3; c++ {
			k := [3]int{face.vIdx[c], face.vtIdx[c], face.vnIdx[c]}
			if idx, ok := vertMap[k]; ok {
				indices = append(indices, idx)
				continue
			}
			v := core.Vertex{Normal: mgl32.Vec3{0, 1, 0}}
			if k[0] >= 0 && k[0] < len(positions) {
				v.Position = positions[k[0]]
			}
			if k[1] >= 0 && k[1] < len(uvs) {
				v.UV = uvs[k[1]]
			}
			if k[2] >= 0 && k[2] < len(normals) {
				v.Normal = normals[k[2]]
			} else {
				hasNormals = false
			}
			idx := uint32(len(vertices))
			vertices = append(vertices, v)
			vertMap[k] = idx
			indices = append(indices, idx)
		}
	}

	if !hasNormals {
		generateNormals(vertices, indices)
	}
	return NewMesh(name, vertices, indices)
}

// generateNormals writes area-weighted vertex normals.
func generateNormals(vertices []core.Vertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		p0 := vertices[i0].Position
		n := vertices[i1].Position.Sub(p0).Cross(vertices[i2].Position.Sub(p0))
		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
	}
	for i := range vertices {
		if accum[i].Len() > 0 {
			vertices[i].Normal = accum[i].Normalize()
		}
	}
}

// ── MTL loader ───────────────────────────────────────────────────────────────

func loadMTL(path, dir string, images ImageLoader) (map[string]*materials.MaterialData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMTL(f, dir, images)
}

func parseMTL(r io.Reader, dir string, images ImageLoader) (map[string]*materials.MaterialData, error) {
	mats := map[string]*materials.MaterialData{}
	var cur *materials.MaterialData

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) > 1 {
				cur = materials.DefaultMaterialData().Clone(fields[1])
				mats[fields[1]] = cur
			}
			continue
		}
		if cur == nil {
			continue
		}

		switch fields[0] {
		case "Ka":
			if c, ok := parseColor(fields[1:]); ok {
				cur.Ambient = c
			}
		case "Kd":
			if c, ok := parseColor(fields[1:]); ok {
				cur.Diffuse = c
			}
		case "Ks":
			if c, ok := parseColor(fields[1:]); ok {
				cur.Specular = c
			}
		case "Ns":
			if len(fields) > 1 {
				if ns, err := strconv.ParseFloat(fields[1], 32); err == nil {
					cur.SpecularExponent = float32(ns)
				}
			}
		case "map_Kd":
			cur.MapDiffuse = loadMap(images, dir, cur.Name, fields[1:], nil)
		case "map_Ks":
			cur.MapSpecular = loadMap(images, dir, cur.Name, fields[1:], nil)
		case "map_d":
			cur.MapDissolve = loadMap(images, dir, cur.Name, fields[1:], nil)
		case "map_bump", "map_Bump", "bump", "norm":
			cur.MapBump = loadMap(images, dir, cur.Name, fields[1:], &cur.BumpIntensity)
		}
	}
	return mats, scanner.Err()
}

func parseColor(fields []string) (core.Color, bool) {
	v, ok := parseVec3(fields)
	if !ok {
		return core.Color{}, false
	}
	return core.Color{R: v[0], G: v[1], B: v[2], A: 1}, true
}

// Texture options with numeric arguments, by maximum argument count.
var mtlNumericOptions = map[string]int{
	"-bm": 1, "-boost": 1, "-texres": 1,
	"-mm": 2, "-o": 3, "-s": 3, "-t": 3,
}

// Texture options taking a single word (on/off or a channel name).
var mtlWordOptions = map[string]bool{
	"-blendu": true, "-blendv": true, "-clamp": true, "-cc": true, "-imfchan": true,
}

// parseMapStatement splits a map statement into its options and file name.
// The last token is always kept for the file name.
func parseMapStatement(fields []string) (opts map[string][]string, file string) {
	opts = map[string][]string{}
	i := 0
	for i < len(fields)-1 {
		name := fields[i]
		switch {
		case mtlWordOptions[name]:
			opts[name] = fields[i+1 : i+2]
			i += 2
		case mtlNumericOptions[name] > 0:
			i++
			var args []string
			for n := mtlNumericOptions[name]; n > 0 && i < len(fields)-1; n-- {
				if _, err := strconv.ParseFloat(fields[i], 32); err != nil {
					break
				}
				args = append(args, fields[i])
				i++
			}
			opts[name] = args
		default:
			return opts, strings.Join(fields[i:], " ")
		}
	}
	return opts, strings.Join(fields[i:], " ")
}

func loadMap(images ImageLoader, dir, matName string, fields []string, bump *float32) *textures.Image {
	opts, file := parseMapStatement(fields)
	if file == "" {
		return nil
	}
	if bump != nil {
		if bm, ok := opts["-bm"]; ok && len(bm) == 1 {
			if v, err := strconv.ParseFloat(bm[0], 32); err == nil {
				*bump = float32(v)
			}
		}
	}
	path := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(file, "\\", "/")))
	img, err := images.Load(path)
	if err != nil {
		logger.Log.Warn("material map not loaded",
			zap.String("material", matName), zap.String("path", path), zap.Error(err))
		return nil
	}
	return img
}
