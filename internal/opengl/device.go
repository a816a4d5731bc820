// Package opengl implements gfx.Device on top of an OpenGL 4.1 core context.
// Every call must come from the goroutine locked to the thread that owns the
// context (see core.NewWindow).
package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"shading-engine/gfx"
	"shading-engine/internal/logger"
)

// Device is the OpenGL graphics context handed to the shading core.
type Device struct {
	meshes map[gfx.MeshID]*gpuMesh
}

var _ gfx.Device = (*Device)(nil)

// NewDevice loads the GL entry points and sets the fixed pipeline state.
// Must be called after the window context is made current.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)

	return &Device{meshes: make(map[gfx.MeshID]*gpuMesh)}, nil
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Destroy releases the meshes still owned by the device.
func (d *Device) Destroy() {
	for id := range d.meshes {
		d.DeleteMesh(id)
	}
}

// ── Programs ──────────────────────────────────────────────────────────────────

func (d *Device) CompileShader(stage gfx.ShaderStage, source string) (gfx.ShaderID, error) {
	var shaderType uint32
	switch stage {
	case gfx.StageVertex:
		shaderType = gl.VERTEX_SHADER
	case gfx.StageFragment:
		shaderType = gl.FRAGMENT_SHADER
	default:
		return 0, fmt.Errorf("unknown shader stage %d", stage)
	}

	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)

		log = strings.TrimRight(log, "\x00")
		logger.Log.Error("Failed to compile", zap.Stringer("stage", stage), zap.String("log", log))
		return 0, &gfx.ShaderError{Stage: stage, Log: log}
	}
	return gfx.ShaderID(shader), nil
}

func (d *Device) DeleteShader(id gfx.ShaderID) {
	gl.DeleteShader(uint32(id))
}

func (d *Device) LinkProgram(shaders ...gfx.ShaderID) (gfx.ProgramID, error) {
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, uint32(s))
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)

		log = strings.TrimRight(log, "\x00")
		logger.Log.Error("Failed to link program", zap.String("log", log))
		return 0, &gfx.ShaderError{Link: true, Log: log}
	}

	for _, s := range shaders {
		gl.DetachShader(prog, uint32(s))
	}
	return gfx.ProgramID(prog), nil
}

func (d *Device) DeleteProgram(id gfx.ProgramID) {
	gl.DeleteProgram(uint32(id))
}

func (d *Device) UseProgram(id gfx.ProgramID) {
	gl.UseProgram(uint32(id))
}

func (d *Device) UniformLocation(p gfx.ProgramID, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) UniformBlockIndex(p gfx.ProgramID, name string) uint32 {
	return gl.GetUniformBlockIndex(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) UniformBlockBinding(p gfx.ProgramID, blockIndex, binding uint32) {
	gl.UniformBlockBinding(uint32(p), blockIndex, binding)
}

func (d *Device) Uniform1i(location int32, value int32) {
	if location == gfx.InvalidLocation {
		return
	}
	gl.Uniform1i(location, value)
}
