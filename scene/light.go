package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"shading-engine/core"
	"shading-engine/materials"
)

const (
	MaxPointLights       = materials.MaxPointLights
	MaxDirectionalLights = materials.MaxDirectionalLights
)

// ErrTooManyLights is returned when a light sequence exceeds its bound.
// Over-full sequences are rejected rather than truncated.
var ErrTooManyLights = materials.ErrTooManyLights

// PointLight is a world-space omni light.
type PointLight struct {
	Position  mgl32.Vec3
	Color     core.Color
	Intensity float32
}

// DirectionalLight is a world-space infinite light. Direction points from
// the surface toward the light.
type DirectionalLight struct {
	Direction mgl32.Vec3
	Color     core.Color
	Intensity float32
}

// LightSet holds the two ordered light sequences submitted each frame.
// Evaluation accumulates in slice order.
type LightSet struct {
	Point       []PointLight
	Directional []DirectionalLight
}

func (s *LightSet) AddPointLight(l PointLight) error {
	if len(s.Point) >= MaxPointLights {
		return fmt.Errorf("%w: point lights limited to %d", ErrTooManyLights, MaxPointLights)
	}
	s.Point = append(s.Point, l)
	return nil
}

func (s *LightSet) AddDirectionalLight(l DirectionalLight) error {
	if len(s.Directional) >= MaxDirectionalLights {
		return fmt.Errorf("%w: directional lights limited to %d", ErrTooManyLights, MaxDirectionalLights)
	}
	s.Directional = append(s.Directional, l)
	return nil
}

func (s *LightSet) Validate() error {
	if len(s.Point) > MaxPointLights {
		return fmt.Errorf("%w: %d point lights, max %d", ErrTooManyLights, len(s.Point), MaxPointLights)
	}
	if len(s.Directional) > MaxDirectionalLights {
		return fmt.Errorf("%w: %d directional lights, max %d", ErrTooManyLights, len(s.Directional), MaxDirectionalLights)
	}
	return nil
}

// PointLightUniform is one element of pointLightsBuffer (std140):
//
//	vec3  positionViewSpace // offset 0
//	vec4  color             // offset 16
//	float intensity         // offset 32
//
// Array stride is 48 bytes.
type PointLightUniform struct {
	PositionViewSpace mgl32.Vec3
	Color             mgl32.Vec4
	Intensity         float32
}

// DirectionalLightUniform mirrors PointLightUniform with a view-space direction.
type DirectionalLightUniform struct {
	DirectionViewSpace mgl32.Vec3
	Color              mgl32.Vec4
	Intensity          float32
}

const (
	LightOffsetVector    = 0
	LightOffsetColor     = 16
	LightOffsetIntensity = 32
	LightUniformStride   = 48
	// PointLightsBufferSize and DirectionalLightsBufferSize are the std140
	// sizes of the fixed-length light arrays.
	PointLightsBufferSize       = MaxPointLights * LightUniformStride
	DirectionalLightsBufferSize = MaxDirectionalLights * LightUniformStride
)

// LightBlock is a LightSet transformed into view space for one frame.
type LightBlock struct {
	Point       []PointLightUniform
	Directional []DirectionalLightUniform
}

// ToViewSpace transforms positions (w=1) and directions (w=0) by view.
func (s *LightSet) ToViewSpace(view mgl32.Mat4) (LightBlock, error) {
	if err := s.Validate(); err != nil {
		return LightBlock{}, err
	}
	block := LightBlock{
		Point:       make([]PointLightUniform, len(s.Point)),
		Directional: make([]DirectionalLightUniform, len(s.Directional)),
	}
	for i, l := range s.Point {
		block.Point[i] = PointLightUniform{
			PositionViewSpace: view.Mul4x1(l.Position.Vec4(1)).Vec3(),
			Color:             l.Color.Vec4(),
			Intensity:         l.Intensity,
		}
	}
	for i, l := range s.Directional {
		block.Directional[i] = DirectionalLightUniform{
			DirectionViewSpace: view.Mul4x1(l.Direction.Vec4(0)).Vec3(),
			Color:              l.Color.Vec4(),
			Intensity:          l.Intensity,
		}
	}
	return block, nil
}

// MarshalPointLights packs lights into a full-size pointLightsBuffer.
// Unused trailing elements are zero.
func MarshalPointLights(lights []PointLightUniform) ([]byte, error) {
	if len(lights) > MaxPointLights {
		return nil, fmt.Errorf("%w: %d point lights, max %d", ErrTooManyLights, len(lights), MaxPointLights)
	}
	buf := make([]byte, PointLightsBufferSize)
	for i, l := range lights {
		putLight(buf[i*LightUniformStride:], l.PositionViewSpace, l.Color, l.Intensity)
	}
	return buf, nil
}

// MarshalDirectionalLights packs lights into a full-size directionalLightsBuffer.
func MarshalDirectionalLights(lights []DirectionalLightUniform) ([]byte, error) {
	if len(lights) > MaxDirectionalLights {
		return nil, fmt.Errorf("%w: %d directional lights, max %d", ErrTooManyLights, len(lights), MaxDirectionalLights)
	}
	buf := make([]byte, DirectionalLightsBufferSize)
	for i, l := range lights {
		putLight(buf[i*LightUniformStride:], l.DirectionViewSpace, l.Color, l.Intensity)
	}
	return buf, nil
}

func putLight(dst []byte, v mgl32.Vec3, color mgl32.Vec4, intensity float32) {
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(dst[LightOffsetVector+i*4:], math.Float32bits(v[i]))
	}
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(dst[LightOffsetColor+i*4:], math.Float32bits(color[i]))
	}
	binary.LittleEndian.PutUint32(dst[LightOffsetIntensity:], math.Float32bits(intensity))
}
