package materials

import (
	"shading-engine/gfx"
)

// TextureSlot names one of the four material maps. Its value is the texture
// unit the map is bound to, the same for every material.
type TextureSlot uint32

const (
	SlotDiffuse TextureSlot = iota
	SlotNormal
	SlotSpecular
	SlotDissolve

	NumSlots = 4
)

var samplerNames = [NumSlots]string{
	SlotDiffuse:  "textureMap",
	SlotNormal:   "bumpMap",
	SlotSpecular: "specularMap",
	SlotDissolve: "dissolveMap",
}

func (s TextureSlot) Unit() uint32 { return uint32(s) }

// SamplerName is the sampler uniform reading this slot.
func (s TextureSlot) SamplerName() string { return samplerNames[s] }

func (s TextureSlot) String() string {
	switch s {
	case SlotDiffuse:
		return "diffuse"
	case SlotNormal:
		return "normal"
	case SlotSpecular:
		return "specular"
	case SlotDissolve:
		return "dissolve"
	}
	return "unknown"
}

// SamplerNames lists the sampler uniforms in slot order.
func SamplerNames() []string {
	return samplerNames[:]
}

type boundTexture struct {
	id      gfx.TextureID
	present bool
}

// Binder binds a material's present maps to their fixed units.
type Binder struct {
	dev     gfx.Device
	program *Program
	slots   [NumSlots]boundTexture
}

func newBinder(dev gfx.Device, program *Program) Binder {
	return Binder{dev: dev, program: program}
}

func (b *Binder) set(slot TextureSlot, id gfx.TextureID) {
	b.slots[slot] = boundTexture{id: id, present: true}
}

// Has reports whether slot holds a texture.
func (b *Binder) Has(slot TextureSlot) bool {
	return b.slots[slot].present
}

// Bind activates each present map's unit, binds the texture and points the
// sampler at the unit. Absent slots leave their unit untouched.
// The owning program must be active.
func (b *Binder) Bind() {
	for i, t := range b.slots {
		if !t.present {
			continue
		}
		slot := TextureSlot(i)
		b.dev.ActiveTexture(slot.Unit())
		b.dev.BindTexture2D(t.id)
		b.program.SetInt(slot.SamplerName(), int32(slot.Unit()))
	}
}
