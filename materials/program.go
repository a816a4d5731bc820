package materials

import (
	"fmt"

	"go.uber.org/zap"

	"shading-engine/gfx"
	"shading-engine/internal/logger"
)

// Program is a linked shading program plus the uniform and block locations
// it was asked to resolve. Locations are queried once in NewProgram; a name
// the compiler optimized away caches as not-found and is skipped on write.
type Program struct {
	dev      gfx.Programs
	id       gfx.ProgramID
	uniforms map[string]int32
	blocks   map[string]uint32
}

// NewProgram compiles and links the two stages and resolves the named
// uniforms and blocks. Shader objects are released before returning.
func NewProgram(dev gfx.Programs, vertexSrc, fragmentSrc string, uniforms, blocks []string) (*Program, error) {
	vs, err := dev.CompileShader(gfx.StageVertex, vertexSrc)
	if err != nil {
		return nil, fmt.Errorf("vertex shader: %w", err)
	}
	defer dev.DeleteShader(vs)

	fs, err := dev.CompileShader(gfx.StageFragment, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("fragment shader: %w", err)
	}
	defer dev.DeleteShader(fs)

	id, err := dev.LinkProgram(vs, fs)
	if err != nil {
		return nil, fmt.Errorf("shader program: %w", err)
	}

	p := &Program{
		dev:      dev,
		id:       id,
		uniforms: make(map[string]int32, len(uniforms)),
		blocks:   make(map[string]uint32, len(blocks)),
	}
	for _, name := range uniforms {
		loc := dev.UniformLocation(id, name)
		if loc == gfx.InvalidLocation {
			logger.Log.Debug("uniform not active", zap.String("name", name))
		}
		p.uniforms[name] = loc
	}
	for _, name := range blocks {
		idx := dev.UniformBlockIndex(id, name)
		if idx == gfx.InvalidIndex {
			logger.Log.Debug("uniform block not active", zap.String("name", name))
		}
		p.blocks[name] = idx
	}
	return p, nil
}

func (p *Program) ID() gfx.ProgramID { return p.id }

// Use makes p the active program.
func (p *Program) Use() {
	p.dev.UseProgram(p.id)
}

// Location returns the cached location of name, or gfx.InvalidLocation.
func (p *Program) Location(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return gfx.InvalidLocation
}

// BlockIndex returns the cached block index of name, or gfx.InvalidIndex.
func (p *Program) BlockIndex(name string) uint32 {
	if idx, ok := p.blocks[name]; ok {
		return idx
	}
	return gfx.InvalidIndex
}

// SetInt writes an int uniform on the active program. Unresolved names are ignored.
func (p *Program) SetInt(name string, v int32) {
	loc := p.Location(name)
	if loc == gfx.InvalidLocation {
		return
	}
	p.dev.Uniform1i(loc, v)
}

// BindBlock ties the named block to a uniform-buffer binding point.
// Reports false when the block is not active.
func (p *Program) BindBlock(name string, binding uint32) bool {
	idx := p.BlockIndex(name)
	if idx == gfx.InvalidIndex {
		return false
	}
	p.dev.UniformBlockBinding(p.id, idx, binding)
	return true
}

func (p *Program) Destroy() {
	p.dev.DeleteProgram(p.id)
}
