package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrInvalidLens reports a camera constructed with unusable lens parameters.
	ErrInvalidLens = errors.New("invalid camera lens")
	// ErrZeroDirection reports a look direction without length.
	ErrZeroDirection = errors.New("zero-length look direction")
)

// PerspectiveCamera is a look-at camera with a symmetric perspective lens.
// Position, Target and Up are read by Update; the lens is validated once at
// construction and on every setter.
type PerspectiveCamera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	fov    float32 // vertical, radians
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
}

// NewPerspectiveCamera creates a camera at (0, 0, 50) looking at the origin.
// fov is the vertical field of view in radians.
func NewPerspectiveCamera(fov, aspect, near, far float32) (*PerspectiveCamera, error) {
	if err := validateLens(fov, aspect, near, far); err != nil {
		return nil, err
	}
	c := &PerspectiveCamera{
		Position: mgl32.Vec3{0, 0, 50},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		fov:      fov,
		aspect:   aspect,
		near:     near,
		far:      far,
	}
	c.Update()
	return c, nil
}

func validateLens(fov, aspect, near, far float32) error {
	switch {
	case !(fov > 0 && fov < math.Pi):
		return fmt.Errorf("%w: fov %v must be in (0, pi)", ErrInvalidLens, fov)
	case !(aspect > 0):
		return fmt.Errorf("%w: aspect %v must be positive", ErrInvalidLens, aspect)
	case !(near > 0):
		return fmt.Errorf("%w: near %v must be positive", ErrInvalidLens, near)
	case !(far > near):
		return fmt.Errorf("%w: far %v must exceed near %v", ErrInvalidLens, far, near)
	}
	return nil
}

// Update recomputes the view and projection matrices together.
func (c *PerspectiveCamera) Update() {
	c.viewMatrix = mgl32.LookAtV(c.Position, c.Target, c.Up)
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
}

// LookToward aims the camera along dir from its current position.
func (c *PerspectiveCamera) LookToward(dir mgl32.Vec3) error {
	if dir.Len() == 0 {
		return ErrZeroDirection
	}
	c.Target = c.Position.Add(dir.Normalize())
	return nil
}

// UpdateAspectRatio adapts the lens to a new framebuffer size. Degenerate
// sizes (minimised windows) are ignored.
func (c *PerspectiveCamera) UpdateAspectRatio(width, height float32) {
	if width > 0 && height > 0 {
		c.aspect = width / height
	}
}

// SetLens replaces all four lens parameters after validating them.
func (c *PerspectiveCamera) SetLens(fov, aspect, near, far float32) error {
	if err := validateLens(fov, aspect, near, far); err != nil {
		return err
	}
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	return nil
}

func (c *PerspectiveCamera) FOV() float32         { return c.fov }
func (c *PerspectiveCamera) AspectRatio() float32 { return c.aspect }
func (c *PerspectiveCamera) NearPlane() float32   { return c.near }
func (c *PerspectiveCamera) FarPlane() float32    { return c.far }

func (c *PerspectiveCamera) GetViewMatrix() mgl32.Mat4 {
	return c.viewMatrix
}

func (c *PerspectiveCamera) GetProjectionMatrix() mgl32.Mat4 {
	return c.projectionMatrix
}

func (c *PerspectiveCamera) GetViewProjectionMatrix() mgl32.Mat4 {
	return c.projectionMatrix.Mul4(c.viewMatrix)
}

func (c *PerspectiveCamera) GetForward() mgl32.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// Object capability. The camera's world matrix is the inverse of its view.

func (c *PerspectiveCamera) GetPosition() mgl32.Vec3 { return c.Position }

func (c *PerspectiveCamera) GetRotation() mgl32.Quat {
	return mgl32.Mat4ToQuat(c.viewMatrix.Mat3().Transpose().Mat4()).Normalize()
}

func (c *PerspectiveCamera) GetScale() mgl32.Vec3 { return mgl32.Vec3{1, 1, 1} }

func (c *PerspectiveCamera) GetMatrix() mgl32.Mat4 {
	return c.viewMatrix.Inv()
}

// OrbitCamera circles a target at a fixed distance.
type OrbitCamera struct {
	*PerspectiveCamera
	Distance float32
	Yaw      float32
	Pitch    float32
}

func NewOrbitCamera(target mgl32.Vec3, distance, fov, aspect float32) (*OrbitCamera, error) {
	pc, err := NewPerspectiveCamera(fov, aspect, 0.1, 1000.0)
	if err != nil {
		return nil, err
	}
	pc.Target = target
	c := &OrbitCamera{
		PerspectiveCamera: pc,
		Distance:          distance,
		Pitch:             0.3,
	}
	c.UpdatePosition()
	return c, nil
}

// UpdatePosition places the camera on its orbit sphere and refreshes the matrices.
func (c *OrbitCamera) UpdatePosition() {
	c.Pitch = mgl32.Clamp(c.Pitch, -1.5, 1.5)

	cosPitch := float32(math.Cos(float64(c.Pitch)))
	sinPitch := float32(math.Sin(float64(c.Pitch)))
	cosYaw := float32(math.Cos(float64(c.Yaw)))
	sinYaw := float32(math.Sin(float64(c.Yaw)))

	offset := mgl32.Vec3{
		c.Distance * cosPitch * sinYaw,
		c.Distance * sinPitch,
		c.Distance * cosPitch * cosYaw,
	}
	c.Position = c.Target.Add(offset)
	c.Update()
}

func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.UpdatePosition()
}

func (c *OrbitCamera) Zoom(delta float32) {
	c.Distance += delta
	if c.Distance < 0.1 {
		c.Distance = 0.1
	}
	c.UpdatePosition()
}

func tanHalf(fov float32) float64 {
	return math.Tan(float64(fov) / 2)
}
