package materials

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shading-engine/gfx"
	"shading-engine/internal/logger"
	"shading-engine/textures"
)

// Uniform-buffer binding points shared by every material program.
const (
	BindingModel uint32 = iota
	BindingScene
	BindingMaterial
	BindingPointLights
	BindingDirectionalLights
)

var blockBindings = []struct {
	name    string
	binding uint32
}{
	{BlockModelMatrices, BindingModel},
	{BlockSceneMatrices, BindingScene},
	{BlockMaterial, BindingMaterial},
	{BlockPointLights, BindingPointLights},
	{BlockDirectionalLights, BindingDirectionalLights},
}

var (
	// ErrTooManyLights is returned for light counts above the shader arrays.
	ErrTooManyLights = errors.New("too many lights")
	// ErrDestroyed is returned by a second Destroy.
	ErrDestroyed = errors.New("material destroyed")
)

// Material is a compiled Blinn-Phong program bound to one MaterialData's
// maps. It owns its program and holds one reference on each uploaded map.
type Material struct {
	data    *MaterialData
	dev     gfx.Device
	cache   *textures.Manager
	program *Program
	binder  Binder

	maps      [NumSlots]*textures.Image
	version   uint64
	destroyed bool
}

// NewMaterial uploads the present maps of data, compiles and links the
// shading program, resolves its locations once and ties its uniform blocks
// to the fixed binding points. On any failure the textures uploaded so far
// are released and no Material is returned.
func NewMaterial(dev gfx.Device, cache *textures.Manager, data *MaterialData) (*Material, error) {
	if data == nil {
		return nil, fmt.Errorf("new material: nil data")
	}
	m := &Material{
		data:  data,
		dev:   dev,
		cache: cache,
		maps: [NumSlots]*textures.Image{
			SlotDiffuse:  data.MapDiffuse,
			SlotNormal:   data.MapBump,
			SlotSpecular: data.MapSpecular,
			SlotDissolve: data.MapDissolve,
		},
	}

	ids := [NumSlots]gfx.TextureID{}
	for i, img := range m.maps {
		if img == nil {
			continue
		}
		id, err := cache.Acquire(img)
		if err != nil {
			m.releaseMaps(i)
			return nil, fmt.Errorf("material %q %s map: %w", data.Name, TextureSlot(i), err)
		}
		ids[i] = id
	}

	uniforms := append([]string{UniformNumLights, UniformNumDirectionalLights}, SamplerNames()...)
	blocks := make([]string, len(blockBindings))
	for i, b := range blockBindings {
		blocks[i] = b.name
	}
	program, err := NewProgram(dev, vertexShaderSource, fragmentShaderSource, uniforms, blocks)
	if err != nil {
		m.releaseMaps(NumSlots)
		logger.Log.Error("material program failed", zap.String("material", data.Name), zap.Error(err))
		return nil, fmt.Errorf("material %q: %w", data.Name, err)
	}
	m.program = program

	for _, b := range blockBindings {
		program.BindBlock(b.name, b.binding)
	}

	m.binder = newBinder(dev, program)
	for i, img := range m.maps {
		if img != nil {
			m.binder.set(TextureSlot(i), ids[i])
		}
	}

	logger.Log.Debug("material created",
		zap.String("material", data.Name),
		zap.Uint32("program", uint32(program.ID())),
		zap.Bool("diffuse", data.HasDiffuseMap()),
		zap.Bool("normal", data.HasNormalMap()),
		zap.Bool("specular", data.HasSpecularMap()),
		zap.Bool("dissolve", data.HasDissolveMap()))
	return m, nil
}

// releaseMaps drops the references on the first n slots.
func (m *Material) releaseMaps(n int) {
	for i := 0; i < n; i++ {
		if m.maps[i] != nil {
			m.cache.Release(m.maps[i])
		}
	}
}

func (m *Material) Name() string        { return m.data.Name }
func (m *Material) Data() *MaterialData { return m.data }
func (m *Material) Program() *Program   { return m.program }

// Activate makes this material's program current. It does not touch
// uniform blocks or textures.
func (m *Material) Activate() {
	m.program.Use()
}

// BindTextures binds the present maps to units 0-3 and sets the samplers.
// Call after Activate and before the draw.
func (m *Material) BindTextures() {
	m.binder.Bind()
}

// HasMap reports whether the material was built with a map in slot.
func (m *Material) HasMap(slot TextureSlot) bool {
	return m.binder.Has(slot)
}

// SetLightCounts writes numLights and numDirectionalLights on the active
// program. Counts above the shader array sizes are rejected.
func (m *Material) SetLightCounts(point, directional int) error {
	if point < 0 || point > MaxPointLights {
		return fmt.Errorf("%w: %d point lights, max %d", ErrTooManyLights, point, MaxPointLights)
	}
	if directional < 0 || directional > MaxDirectionalLights {
		return fmt.Errorf("%w: %d directional lights, max %d", ErrTooManyLights, directional, MaxDirectionalLights)
	}
	m.program.SetInt(UniformNumLights, int32(point))
	m.program.SetInt(UniformNumDirectionalLights, int32(directional))
	return nil
}

// Uniform returns the current materialBuffer contents. The has*Map flags
// follow the maps bound at construction, not later edits to Data.
func (m *Material) Uniform() MaterialUniform {
	u := m.data.Uniform()
	u.HasDiffuseMap = m.binder.Has(SlotDiffuse)
	u.HasNormalMap = m.binder.Has(SlotNormal)
	u.HasSpecularMap = m.binder.Has(SlotSpecular)
	u.HasDissolveMap = m.binder.Has(SlotDissolve)
	return u
}

// Version changes whenever the materialBuffer contents may have changed.
func (m *Material) Version() uint64 { return m.version }

// Invalidate marks the material buffer stale after editing Data's constants.
func (m *Material) Invalidate() { m.version++ }

// SetDisplayNormalMap toggles the normal-map debug output.
func (m *Material) SetDisplayNormalMap(on bool) {
	if m.data.DisplayNormalMap != on {
		m.data.DisplayNormalMap = on
		m.version++
	}
}

// SetDisplaySpecularMap toggles the specular-map debug output.
func (m *Material) SetDisplaySpecularMap(on bool) {
	if m.data.DisplaySpecularMap != on {
		m.data.DisplaySpecularMap = on
		m.version++
	}
}

// Destroy releases the program and the material's texture references.
// Further calls return ErrDestroyed.
func (m *Material) Destroy() error {
	if m.destroyed {
		return ErrDestroyed
	}
	m.destroyed = true
	m.program.Destroy()
	m.releaseMaps(NumSlots)
	return nil
}
