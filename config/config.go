// Package config loads the demo's TOML settings: window, camera lens and
// pose, lights, the model to show and material overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"shading-engine/core"
	"shading-engine/materials"
	"shading-engine/scene"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Camera   CameraConfig   `toml:"camera"`
	Lights   []LightConfig  `toml:"lights"`
	Model    ModelConfig    `toml:"model"`
	Material MaterialConfig `toml:"material"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// CameraConfig describes the lens (FOV in degrees) and the initial pose.
type CameraConfig struct {
	FOV      float32    `toml:"fov"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
	Position [3]float32 `toml:"position"`
	Target   [3]float32 `toml:"target"`
	// Frame moves the camera so the whole model is in view after loading.
	Frame bool `toml:"frame"`
}

const (
	LightPoint       = "point"
	LightDirectional = "directional"
)

// LightConfig is one [[lights]] entry. Vector holds the world position of a
// point light or the surface-to-light direction of a directional light.
type LightConfig struct {
	Type      string     `toml:"type"`
	Vector    [3]float32 `toml:"vector"`
	Color     [4]float32 `toml:"color"`
	Intensity float32    `toml:"intensity"`
}

// ModelConfig names an .obj, .gltf or .glb file. An empty path shows the
// built-in textured quad.
type ModelConfig struct {
	Path  string  `toml:"path"`
	Scale float32 `toml:"scale"`
}

// MaterialConfig overrides every loaded material. A nil BumpIntensity
// keeps each material's own value.
type MaterialConfig struct {
	DisplayNormalMap   bool     `toml:"display_normal_map"`
	DisplaySpecularMap bool     `toml:"display_specular_map"`
	TexLod             float32  `toml:"tex_lod"`
	BumpIntensity      *float32 `toml:"bump_intensity"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

var (
	ErrInvalidWindow = errors.New("invalid window size")
	ErrInvalidLight  = errors.New("invalid light")
)

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{Title: "Shading Engine", Width: 1280, Height: 720},
		Camera: CameraConfig{
			FOV:      60,
			Near:     0.1,
			Far:      1000,
			Position: [3]float32{0, 0, 5},
			Frame:    true,
		},
		Lights: []LightConfig{
			{Type: LightPoint, Vector: [3]float32{2, 3, 4}, Color: [4]float32{1, 1, 1, 1}, Intensity: 1},
		},
		Model: ModelConfig{Scale: 1},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r on top of Default. Unknown keys are errors.
// A file that lists [[lights]] replaces the default light.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	cfg.Lights = nil

	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return Config{}, err
	}
	if cfg.Lights == nil {
		cfg.Lights = Default().Lights
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the window, lens and light bounds.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidWindow, c.Window.Width, c.Window.Height)
	}
	if _, err := c.Camera.Build(c.AspectRatio()); err != nil {
		return err
	}
	_, err := c.LightSet()
	return err
}

func (c Config) AspectRatio() float32 {
	return float32(c.Window.Width) / float32(c.Window.Height)
}

// Build creates the configured camera, aimed and with current matrices.
func (c CameraConfig) Build(aspect float32) (*scene.PerspectiveCamera, error) {
	cam, err := scene.NewPerspectiveCamera(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
	if err != nil {
		return nil, err
	}
	cam.Position = mgl32.Vec3(c.Position)
	cam.Target = mgl32.Vec3(c.Target)
	if cam.Position == cam.Target {
		return nil, fmt.Errorf("%w: camera position equals target", scene.ErrZeroDirection)
	}
	cam.Update()
	return cam, nil
}

// LightSet converts the configured lights, rejecting unknown types and
// more lights of a kind than the shading program supports.
func (c Config) LightSet() (scene.LightSet, error) {
	var set scene.LightSet
	for i, l := range c.Lights {
		color := core.Color{R: l.Color[0], G: l.Color[1], B: l.Color[2], A: l.Color[3]}
		var err error
		switch l.Type {
		case LightPoint:
			err = set.AddPointLight(scene.PointLight{Position: mgl32.Vec3(l.Vector), Color: color, Intensity: l.Intensity})
		case LightDirectional:
			if mgl32.Vec3(l.Vector).Len() == 0 {
				return scene.LightSet{}, fmt.Errorf("%w: light %d has zero direction", ErrInvalidLight, i)
			}
			err = set.AddDirectionalLight(scene.DirectionalLight{Direction: mgl32.Vec3(l.Vector), Color: color, Intensity: l.Intensity})
		default:
			return scene.LightSet{}, fmt.Errorf("%w: light %d has type %q", ErrInvalidLight, i, l.Type)
		}
		if err != nil {
			return scene.LightSet{}, fmt.Errorf("light %d: %w", i, err)
		}
	}
	return set, nil
}

// Apply writes the overrides into data.
func (m MaterialConfig) Apply(data *materials.MaterialData) {
	data.DisplayNormalMap = m.DisplayNormalMap
	data.DisplaySpecularMap = m.DisplaySpecularMap
	data.TexLod = m.TexLod
	if m.BumpIntensity != nil {
		data.BumpIntensity = *m.BumpIntensity
	}
}
