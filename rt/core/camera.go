package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	NearPlane = 0.05
	FarPlane  = 20.0

	// PitchEpsilon keeps the look vector away from the world up axis.
	PitchEpsilon = 1e-4
	MaxPitch     = math.Pi/2 - PitchEpsilon
	MinPitch     = -MaxPitch

	DefaultSensitivity = 0.2
	DefaultMoveSpeed   = 1.0
	DefaultFov         = math.Pi / 3
)

var WorldUp = mgl32.Vec3{0, 1, 0}

// Camera is a left-handed yaw/pitch camera. Yaw 0 looks down +Z, +X is right
// and +Y is up. Roll is not modeled.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Fov      float32 // vertical, radians
	Aspect   float32

	Sensitivity float32
	MoveSpeed   float32
}

func NewCamera() *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 0, -3},
		Fov:         DefaultFov,
		Aspect:      1,
		Sensitivity: DefaultSensitivity,
		MoveSpeed:   DefaultMoveSpeed,
	}
}

func (c *Camera) ForwardDir() mgl32.Vec3 {
	s, co := math.Sincos(float64(c.Yaw))
	return mgl32.Vec3{float32(s), 0, float32(co)}
}

func (c *Camera) RightDir() mgl32.Vec3 {
	return WorldUp.Cross(c.ForwardDir())
}

func (c *Camera) LookDir() mgl32.Vec3 {
	sy, cy := math.Sincos(float64(c.Yaw))
	sp, cp := math.Sincos(float64(c.Pitch))
	return normalizeOrZero(mgl32.Vec3{
		float32(sy * cp),
		float32(sp),
		float32(cy * cp),
	})
}

// UpDir is the camera-space up vector, perpendicular to both LookDir and
// RightDir.
func (c *Camera) UpDir() mgl32.Vec3 {
	return c.LookDir().Cross(c.RightDir())
}

// Update applies one frame of input. inputDir is expressed in the local
// {right, forward, up} axes; mouseDelta is in screen pixels.
func (c *Camera) Update(inputDir mgl32.Vec3, mouseDelta mgl32.Vec2, dt float32) {
	if !finite(dt) {
		return
	}
	move := c.RightDir().Mul(inputDir.X()).
		Add(c.ForwardDir().Mul(inputDir.Y())).
		Add(WorldUp.Mul(inputDir.Z()))

	dyaw := mouseDelta.X() * dt * c.Sensitivity
	dpitch := mouseDelta.Y() * dt * c.Sensitivity
	// non-finite look input is dropped so yaw and pitch stay usable
	if finite(dyaw, dpitch) {
		c.Yaw += dyaw
		c.Pitch -= dpitch
	}
	c.Yaw = WrapAngle(c.Yaw)
	c.Pitch = mgl32.Clamp(c.Pitch, MinPitch, MaxPitch)

	if step := move.Mul(dt * c.MoveSpeed); finite(step[:]...) {
		c.Position = c.Position.Add(step)
	}
}

func finite(xs ...float32) bool {
	for _, x := range xs {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false
		}
	}
	return true
}

// ViewMatrix is a left-handed look-to matrix.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return LookToLH(c.Position, c.LookDir(), c.UpDir())
}

// ProjectionMatrix is a left-handed perspective matrix mapping depth to [0, 1].
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return PerspectiveLH(c.Fov, c.Aspect, NearPlane, FarPlane)
}

func (c *Camera) Uniform() CameraUniform {
	proj := c.ProjectionMatrix()
	view := c.ViewMatrix()
	return CameraUniform{
		Position: c.Position,
		Aspect:   c.Aspect,
		Right:    c.RightDir(),
		Fov:      c.Fov,
		Up:       c.UpDir(),
		FovScale: float32(math.Tan(float64(c.Fov) / 2)),
		Forward:  c.LookDir().Vec4(1),
		Proj:     proj,
		View:     view,
		InvProj:  proj.Inv(),
		InvView:  view.Inv(),
	}
}

// WrapAngle maps a into [0, 2pi).
func WrapAngle(a float32) float32 {
	const tau = 2 * math.Pi
	w := float32(math.Mod(float64(a), tau))
	if w < 0 {
		w += tau
	}
	// float32 rounding can land exactly on tau
	if w >= tau {
		w = 0
	}
	return w
}

func LookToLH(eye, dir, up mgl32.Vec3) mgl32.Mat4 {
	f := normalizeOrZero(dir)
	s := normalizeOrZero(up.Cross(f))
	u := f.Cross(s)
	return mgl32.Mat4{
		s.X(), u.X(), f.X(), 0,
		s.Y(), u.Y(), f.Y(), 0,
		s.Z(), u.Z(), f.Z(), 0,
		-s.Dot(eye), -u.Dot(eye), -f.Dot(eye), 1,
	}
}

func PerspectiveLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	h := float32(1 / math.Tan(float64(fovY)/2))
	w := h / aspect
	r := far / (far - near)
	return mgl32.Mat4{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, r, 1,
		0, 0, -r * near, 0,
	}
}

func normalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
