package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"shading-engine/gfx"
)

func (d *Device) CreateUniformBuffer(size int) (gfx.BufferID, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid uniform buffer size %d", size)
	}
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.UNIFORM_BUFFER, id)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return gfx.BufferID(id), nil
}

func (d *Device) UpdateUniformBuffer(id gfx.BufferID, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, uint32(id))
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (d *Device) BindUniformBuffer(binding uint32, id gfx.BufferID) {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, uint32(id))
}

func (d *Device) DeleteBuffer(id gfx.BufferID) {
	buf := uint32(id)
	gl.DeleteBuffers(1, &buf)
}
