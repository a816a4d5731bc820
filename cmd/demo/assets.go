package main

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"shading-engine/config"
	"shading-engine/internal/logger"
	"shading-engine/materials"
	"shading-engine/scene"
	"shading-engine/textures"
)

// buildScene creates the camera, lights and model described by cfg.
func buildScene(cfg config.Config, images scene.ImageLoader) (*scene.Scene, error) {
	s := scene.NewScene()

	cam, err := cfg.Camera.Build(cfg.AspectRatio())
	if err != nil {
		return nil, err
	}
	s.SetCamera(cam)

	if s.Lights, err = cfg.LightSet(); err != nil {
		return nil, err
	}

	nodes, mats, err := loadModel(cfg.Model, images)
	if err != nil {
		return nil, err
	}
	for _, m := range mats {
		cfg.Material.Apply(m)
	}
	for _, n := range nodes {
		if cfg.Model.Scale != 0 && cfg.Model.Scale != 1 {
			n.SetScale(n.GetScale().Mul(cfg.Model.Scale))
		}
		s.AddNode(n)
	}

	if cfg.Camera.Frame {
		if box, ok := s.Bounds(); ok {
			s.FrameBounds(box)
		}
	}
	logger.Log.Info("scene ready",
		zap.Int("nodes", len(nodes)),
		zap.Int("materials", len(mats)),
		zap.Int("pointLights", len(s.Lights.Point)),
		zap.Int("directionalLights", len(s.Lights.Directional)))
	return s, nil
}

func loadModel(m config.ModelConfig, images scene.ImageLoader) ([]*scene.Node, []*materials.MaterialData, error) {
	switch ext := strings.ToLower(filepath.Ext(m.Path)); ext {
	case "":
		n, data := demoQuad()
		return []*scene.Node{n}, []*materials.MaterialData{data}, nil
	case ".obj":
		meshes, err := scene.LoadOBJ(m.Path, images)
		if err != nil {
			return nil, nil, err
		}
		var nodes []*scene.Node
		seen := make(map[*materials.MaterialData]bool)
		var mats []*materials.MaterialData
		for _, mesh := range meshes {
			nodes = append(nodes, scene.NewMeshNode(mesh.Name, mesh))
			if mesh.Material != nil && !seen[mesh.Material] {
				seen[mesh.Material] = true
				mats = append(mats, mesh.Material)
			}
		}
		return nodes, mats, nil
	case ".gltf", ".glb":
		res, err := scene.LoadGLTF(m.Path, images)
		if err != nil {
			return nil, nil, err
		}
		return res.Roots, res.Materials, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model format %q", ext)
	}
}

// demoQuad is a checker-textured quad with a bumpy normal map, a specular
// map and a round dissolve cutout, so every map slot is exercised.
func demoQuad() (*scene.Node, *materials.MaterialData) {
	const size = 128
	diffuse := textures.NewCheckerImage("checker", size,
		color.RGBA{220, 180, 120, 255}, color.RGBA{90, 60, 40, 255})

	normal := &textures.Image{Name: "ripples", Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	specular := &textures.Image{Name: "gloss", Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	dissolve := &textures.Image{Name: "disc", Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			u := float32(x)/size*2 - 1
			v := float32(y)/size*2 - 1
			r := mgl32.Vec2{u, v}.Len()

			n := mgl32.Vec3{0.3 * math32.Sin(r*18) * u, 0.3 * math32.Sin(r*18) * v, 1}.Normalize()
			normal.Set(x, y, color.RGBA{encode(n[0]), encode(n[1]), encode(n[2]), 255})

			g := uint8(255 * mgl32.Clamp(1-r, 0, 1))
			specular.Set(x, y, color.RGBA{g, g, g, 255})

			d := uint8(255)
			if r > 0.98 {
				d = 0
			}
			dissolve.Set(x, y, color.RGBA{d, d, d, 255})
		}
	}

	data := materials.TexturedMaterialData("demo", diffuse)
	data.MapBump = normal
	data.MapSpecular = specular
	data.MapDissolve = dissolve
	data.SpecularExponent = 64

	mesh := scene.CreateQuad(2)
	mesh.Material = data
	return scene.NewMeshNode("demo", mesh), data
}

func encode(f float32) uint8 {
	return uint8(mgl32.Clamp(f*0.5+0.5, 0, 1)*255 + 0.5)
}

var _ scene.ImageLoader = (*textures.Manager)(nil)
