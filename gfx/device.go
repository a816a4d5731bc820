// Package gfx defines the graphics-context collaborator the shading core
// depends on. A Device is created by the top-level renderer and injected
// into every component; nothing in the engine reaches for a global context.
//
// All methods are synchronous and must be called from the thread that owns
// the underlying context.
package gfx

import "errors"

type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return "unknown"
}

type (
	ShaderID  uint32
	ProgramID uint32
	TextureID uint32
	BufferID  uint32
	MeshID    uint32
)

const (
	// InvalidLocation is returned for a uniform the program does not expose.
	InvalidLocation int32 = -1
	// InvalidIndex is returned for a uniform block the program does not expose.
	InvalidIndex uint32 = 0xFFFFFFFF
)

// Fixed vertex attribute slots.
const (
	AttribPosition  uint32 = 0
	AttribNormal    uint32 = 1
	AttribUV        uint32 = 2
	AttribTangent   uint32 = 3
	AttribBitangent uint32 = 4
)

var (
	ErrShaderCompile = errors.New("shader compile failed")
	ErrProgramLink   = errors.New("program link failed")
)

// ShaderError carries the compiler or linker diagnostic log.
type ShaderError struct {
	Stage ShaderStage // meaningless for link errors
	Link  bool
	Log   string
}

func (e *ShaderError) Error() string {
	if e.Link {
		return "link failed: " + e.Log
	}
	return e.Stage.String() + " compile failed: " + e.Log
}

func (e *ShaderError) Unwrap() error {
	if e.Link {
		return ErrProgramLink
	}
	return ErrShaderCompile
}

// Programs compiles, links and drives shading programs.
type Programs interface {
	CompileShader(stage ShaderStage, source string) (ShaderID, error)
	DeleteShader(id ShaderID)
	LinkProgram(shaders ...ShaderID) (ProgramID, error)
	DeleteProgram(id ProgramID)
	UseProgram(id ProgramID)

	// UniformLocation returns InvalidLocation when name is not active.
	UniformLocation(p ProgramID, name string) int32
	// UniformBlockIndex returns InvalidIndex when name is not active.
	UniformBlockIndex(p ProgramID, name string) uint32
	UniformBlockBinding(p ProgramID, blockIndex, binding uint32)
	// Uniform1i writes to the active program. Location -1 is ignored.
	Uniform1i(location int32, value int32)
}

// Textures creates and binds sampler-ready 2D textures.
type Textures interface {
	// CreateTexture2D uploads tightly packed RGBA8 rows, top row first.
	CreateTexture2D(width, height int, rgba []byte) (TextureID, error)
	DeleteTexture(id TextureID)
	ActiveTexture(unit uint32)
	BindTexture2D(id TextureID)
}

// Buffers manages uniform buffers bound to indexed binding points.
type Buffers interface {
	CreateUniformBuffer(size int) (BufferID, error)
	UpdateUniformBuffer(id BufferID, data []byte)
	BindUniformBuffer(binding uint32, id BufferID)
	DeleteBuffer(id BufferID)
}

// Meshes uploads interleaved vertex data laid out in the fixed attribute
// slots and submits indexed draws.
type Meshes interface {
	CreateMesh(vertices []float32, indices []uint32) (MeshID, error)
	DrawMesh(id MeshID)
	DeleteMesh(id MeshID)
}

// Device is the full graphics-context collaborator.
type Device interface {
	Programs
	Textures
	Buffers
	Meshes

	Viewport(x, y, width, height int32)
	Clear(r, g, b, a float32)
}
