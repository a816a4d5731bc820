package materials

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// std140 byte offsets of the materialBuffer block members.
const (
	OffsetAmbient            = 0
	OffsetDiffuse            = 16
	OffsetSpecular           = 32
	OffsetSpecularExponent   = 48
	OffsetBumpIntensity      = 52
	OffsetHasDiffuseMap      = 56
	OffsetHasNormalMap       = 60
	OffsetHasSpecularMap     = 64
	OffsetHasDissolveMap     = 68
	OffsetDisplayNormalMap   = 72
	OffsetDisplaySpecularMap = 76
	OffsetTexLod             = 80

	// MaterialUniformSize is the block size rounded up to the vec4 base alignment.
	MaterialUniformSize = 96
)

// MaterialUniform mirrors the materialBuffer uniform block. Field order and
// offsets are fixed; the GLSL declaration in shaders.go must match.
type MaterialUniform struct {
	Ambient            mgl32.Vec4
	Diffuse            mgl32.Vec4
	Specular           mgl32.Vec4
	SpecularExponent   float32
	BumpIntensity      float32
	HasDiffuseMap      bool
	HasNormalMap       bool
	HasSpecularMap     bool
	HasDissolveMap     bool
	DisplayNormalMap   bool
	DisplaySpecularMap bool
	TexLod             float32
}

// Marshal returns the std140 encoding of u.
func (u MaterialUniform) Marshal() []byte {
	buf := make([]byte, MaterialUniformSize)
	u.MarshalTo(buf)
	return buf
}

// MarshalTo writes u into dst, which must hold MaterialUniformSize bytes.
func (u MaterialUniform) MarshalTo(dst []byte) {
	_ = dst[MaterialUniformSize-1]
	putVec4(dst[OffsetAmbient:], u.Ambient)
	putVec4(dst[OffsetDiffuse:], u.Diffuse)
	putVec4(dst[OffsetSpecular:], u.Specular)
	putFloat(dst[OffsetSpecularExponent:], u.SpecularExponent)
	putFloat(dst[OffsetBumpIntensity:], u.BumpIntensity)
	putBool(dst[OffsetHasDiffuseMap:], u.HasDiffuseMap)
	putBool(dst[OffsetHasNormalMap:], u.HasNormalMap)
	putBool(dst[OffsetHasSpecularMap:], u.HasSpecularMap)
	putBool(dst[OffsetHasDissolveMap:], u.HasDissolveMap)
	putBool(dst[OffsetDisplayNormalMap:], u.DisplayNormalMap)
	putBool(dst[OffsetDisplaySpecularMap:], u.DisplaySpecularMap)
	putFloat(dst[OffsetTexLod:], u.TexLod)
	for i := OffsetTexLod + 4; i < MaterialUniformSize; i++ {
		dst[i] = 0
	}
}

// UnmarshalMaterialUniform decodes a std140 materialBuffer.
func UnmarshalMaterialUniform(b []byte) (MaterialUniform, error) {
	if len(b) < MaterialUniformSize {
		return MaterialUniform{}, fmt.Errorf("material buffer: %d bytes, want %d", len(b), MaterialUniformSize)
	}
	return MaterialUniform{
		Ambient:            getVec4(b[OffsetAmbient:]),
		Diffuse:            getVec4(b[OffsetDiffuse:]),
		Specular:           getVec4(b[OffsetSpecular:]),
		SpecularExponent:   getFloat(b[OffsetSpecularExponent:]),
		BumpIntensity:      getFloat(b[OffsetBumpIntensity:]),
		HasDiffuseMap:      getBool(b[OffsetHasDiffuseMap:]),
		HasNormalMap:       getBool(b[OffsetHasNormalMap:]),
		HasSpecularMap:     getBool(b[OffsetHasSpecularMap:]),
		HasDissolveMap:     getBool(b[OffsetHasDissolveMap:]),
		DisplayNormalMap:   getBool(b[OffsetDisplayNormalMap:]),
		DisplaySpecularMap: getBool(b[OffsetDisplaySpecularMap:]),
		TexLod:             getFloat(b[OffsetTexLod:]),
	}, nil
}

func putFloat(dst []byte, f float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(f))
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putVec4(dst []byte, v mgl32.Vec4) {
	for i := range v {
		putFloat(dst[i*4:], v[i])
	}
}

func getVec4(b []byte) mgl32.Vec4 {
	var v mgl32.Vec4
	for i := range v {
		v[i] = getFloat(b[i*4:])
	}
	return v
}

// std140 booleans occupy a full 32-bit word.
func putBool(dst []byte, v bool) {
	var u uint32
	if v {
		u = 1
	}
	binary.LittleEndian.PutUint32(dst, u)
}

func getBool(b []byte) bool {
	return binary.LittleEndian.Uint32(b) != 0
}

// MatrixBlockSize is the size of the two-mat4 modelMatrices and sceneMatrices blocks.
const MatrixBlockSize = 2 * 64

// MarshalMatrices encodes two column-major mat4s back to back, as in the
// modelMatrices{modelMatrix, normalMatrix} and
// sceneMatrices{viewMatrix, projectionMatrix} blocks.
func MarshalMatrices(a, b mgl32.Mat4) []byte {
	buf := make([]byte, MatrixBlockSize)
	for i := 0; i < 16; i++ {
		putFloat(buf[i*4:], a[i])
		putFloat(buf[64+i*4:], b[i])
	}
	return buf
}
