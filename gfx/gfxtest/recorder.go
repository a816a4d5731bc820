// Package gfxtest provides an in-memory gfx.Device that records state
// changes so tests can inspect bound units, uniforms and draw order
// without a GPU.
package gfxtest

import (
	"fmt"
	"sort"

	"shading-engine/gfx"
)

type Shader struct {
	Stage   gfx.ShaderStage
	Source  string
	Deleted bool
}

type Program struct {
	Shaders       []gfx.ShaderID
	Deleted       bool
	Uniforms      map[string]int32
	Blocks        map[string]uint32
	BlockBindings map[uint32]uint32
	Ints          map[int32]int32
}

type Texture struct {
	Width, Height int
	Pixels        []byte
	Deleted       bool
}

type Mesh struct {
	Vertices []float32
	Indices  []uint32
	Deleted  bool
}

// Draw is a snapshot of the state a draw call was issued with.
type Draw struct {
	Program  gfx.ProgramID
	Mesh     gfx.MeshID
	Units    map[uint32]gfx.TextureID
	Bindings map[uint32]gfx.BufferID
}

// Recorder implements gfx.Device.
type Recorder struct {
	// FailCompile makes compilation of the given stage fail with the log.
	FailCompile map[gfx.ShaderStage]string
	// FailLink makes linking fail with this log when non-empty.
	FailLink string
	// Missing lists uniform and block names reported as inactive.
	Missing map[string]bool

	Shaders  map[gfx.ShaderID]*Shader
	Programs map[gfx.ProgramID]*Program
	Textures map[gfx.TextureID]*Texture
	Buffers  map[gfx.BufferID][]byte
	Meshes   map[gfx.MeshID]*Mesh

	ActiveProgram gfx.ProgramID
	ActiveUnit    uint32
	Units         map[uint32]gfx.TextureID
	Bindings      map[uint32]gfx.BufferID

	// LocationQueries counts UniformLocation/UniformBlockIndex calls by name.
	LocationQueries map[string]int
	Draws           []Draw
	Calls           []string

	nextID uint32
}

var _ gfx.Device = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{
		FailCompile:     map[gfx.ShaderStage]string{},
		Missing:         map[string]bool{},
		Shaders:         map[gfx.ShaderID]*Shader{},
		Programs:        map[gfx.ProgramID]*Program{},
		Textures:        map[gfx.TextureID]*Texture{},
		Buffers:         map[gfx.BufferID][]byte{},
		Meshes:          map[gfx.MeshID]*Mesh{},
		Units:           map[uint32]gfx.TextureID{},
		Bindings:        map[uint32]gfx.BufferID{},
		LocationQueries: map[string]int{},
	}
}

func (r *Recorder) id() uint32 {
	r.nextID++
	return r.nextID
}

func (r *Recorder) call(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

func (r *Recorder) CompileShader(stage gfx.ShaderStage, source string) (gfx.ShaderID, error) {
	r.call("CompileShader %s", stage)
	if log, ok := r.FailCompile[stage]; ok {
		return 0, &gfx.ShaderError{Stage: stage, Log: log}
	}
	id := gfx.ShaderID(r.id())
	r.Shaders[id] = &Shader{Stage: stage, Source: source}
	return id, nil
}

func (r *Recorder) DeleteShader(id gfx.ShaderID) {
	r.call("DeleteShader %d", id)
	if s, ok := r.Shaders[id]; ok {
		s.Deleted = true
	}
}

func (r *Recorder) LinkProgram(shaders ...gfx.ShaderID) (gfx.ProgramID, error) {
	r.call("LinkProgram")
	if r.FailLink != "" {
		return 0, &gfx.ShaderError{Link: true, Log: r.FailLink}
	}
	id := gfx.ProgramID(r.id())
	r.Programs[id] = &Program{
		Shaders:       shaders,
		Uniforms:      map[string]int32{},
		Blocks:        map[string]uint32{},
		BlockBindings: map[uint32]uint32{},
		Ints:          map[int32]int32{},
	}
	return id, nil
}

func (r *Recorder) DeleteProgram(id gfx.ProgramID) {
	r.call("DeleteProgram %d", id)
	if p, ok := r.Programs[id]; ok {
		p.Deleted = true
	}
	if r.ActiveProgram == id {
		r.ActiveProgram = 0
	}
}

func (r *Recorder) UseProgram(id gfx.ProgramID) {
	r.call("UseProgram %d", id)
	r.ActiveProgram = id
}

func (r *Recorder) UniformLocation(p gfx.ProgramID, name string) int32 {
	r.LocationQueries[name]++
	prog, ok := r.Programs[p]
	if !ok || r.Missing[name] {
		return gfx.InvalidLocation
	}
	if loc, ok := prog.Uniforms[name]; ok {
		return loc
	}
	loc := int32(len(prog.Uniforms))
	prog.Uniforms[name] = loc
	return loc
}

func (r *Recorder) UniformBlockIndex(p gfx.ProgramID, name string) uint32 {
	r.LocationQueries[name]++
	prog, ok := r.Programs[p]
	if !ok || r.Missing[name] {
		return gfx.InvalidIndex
	}
	if idx, ok := prog.Blocks[name]; ok {
		return idx
	}
	idx := uint32(len(prog.Blocks))
	prog.Blocks[name] = idx
	return idx
}

func (r *Recorder) UniformBlockBinding(p gfx.ProgramID, blockIndex, binding uint32) {
	r.call("UniformBlockBinding %d %d", blockIndex, binding)
	if prog, ok := r.Programs[p]; ok {
		prog.BlockBindings[blockIndex] = binding
	}
}

func (r *Recorder) Uniform1i(location int32, value int32) {
	r.call("Uniform1i %d %d", location, value)
	if location == gfx.InvalidLocation {
		return
	}
	if prog, ok := r.Programs[r.ActiveProgram]; ok {
		prog.Ints[location] = value
	}
}

// Int returns the value last written to the named uniform of program p.
func (r *Recorder) Int(p gfx.ProgramID, name string) (int32, bool) {
	prog, ok := r.Programs[p]
	if !ok {
		return 0, false
	}
	loc, ok := prog.Uniforms[name]
	if !ok {
		return 0, false
	}
	v, ok := prog.Ints[loc]
	return v, ok
}

func (r *Recorder) CreateTexture2D(width, height int, rgba []byte) (gfx.TextureID, error) {
	if width <= 0 || height <= 0 || len(rgba) < width*height*4 {
		return 0, fmt.Errorf("bad texture %dx%d with %d bytes", width, height, len(rgba))
	}
	id := gfx.TextureID(r.id())
	r.call("CreateTexture2D %d", id)
	r.Textures[id] = &Texture{Width: width, Height: height, Pixels: append([]byte(nil), rgba...)}
	return id, nil
}

func (r *Recorder) DeleteTexture(id gfx.TextureID) {
	r.call("DeleteTexture %d", id)
	if t, ok := r.Textures[id]; ok {
		t.Deleted = true
	}
}

func (r *Recorder) ActiveTexture(unit uint32) {
	r.call("ActiveTexture %d", unit)
	r.ActiveUnit = unit
}

func (r *Recorder) BindTexture2D(id gfx.TextureID) {
	r.call("BindTexture2D %d", id)
	r.Units[r.ActiveUnit] = id
}

func (r *Recorder) CreateUniformBuffer(size int) (gfx.BufferID, error) {
	if size <= 0 {
		return 0, fmt.Errorf("bad buffer size %d", size)
	}
	id := gfx.BufferID(r.id())
	r.call("CreateUniformBuffer %d", size)
	r.Buffers[id] = make([]byte, size)
	return id, nil
}

func (r *Recorder) UpdateUniformBuffer(id gfx.BufferID, data []byte) {
	r.call("UpdateUniformBuffer %d", id)
	if buf, ok := r.Buffers[id]; ok {
		copy(buf, data)
	}
}

func (r *Recorder) BindUniformBuffer(binding uint32, id gfx.BufferID) {
	r.call("BindUniformBuffer %d %d", binding, id)
	r.Bindings[binding] = id
}

func (r *Recorder) DeleteBuffer(id gfx.BufferID) {
	r.call("DeleteBuffer %d", id)
	delete(r.Buffers, id)
}

func (r *Recorder) CreateMesh(vertices []float32, indices []uint32) (gfx.MeshID, error) {
	id := gfx.MeshID(r.id())
	r.call("CreateMesh %d", id)
	r.Meshes[id] = &Mesh{
		Vertices: append([]float32(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
	}
	return id, nil
}

func (r *Recorder) DrawMesh(id gfx.MeshID) {
	r.call("DrawMesh %d", id)
	d := Draw{
		Program:  r.ActiveProgram,
		Mesh:     id,
		Units:    make(map[uint32]gfx.TextureID, len(r.Units)),
		Bindings: make(map[uint32]gfx.BufferID, len(r.Bindings)),
	}
	for k, v := range r.Units {
		d.Units[k] = v
	}
	for k, v := range r.Bindings {
		d.Bindings[k] = v
	}
	r.Draws = append(r.Draws, d)
}

func (r *Recorder) DeleteMesh(id gfx.MeshID) {
	r.call("DeleteMesh %d", id)
	if m, ok := r.Meshes[id]; ok {
		m.Deleted = true
	}
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.call("Viewport %d %d %d %d", x, y, width, height)
}

func (r *Recorder) Clear(red, green, blue, alpha float32) {
	r.call("Clear")
}

// LiveTextures returns the IDs of textures not yet deleted, sorted.
func (r *Recorder) LiveTextures() []gfx.TextureID {
	var ids []gfx.TextureID
	for id, t := range r.Textures {
		if !t.Deleted {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
