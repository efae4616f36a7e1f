package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func assertMatApprox(t *testing.T, want, got mgl32.Mat4, tol float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], float64(tol), "element %d", i)
	}
}

func TestYawWrapsAndPitchClamps(t *testing.T) {
	c := NewCamera()
	moves := []mgl32.Vec2{{500, 0}, {-900, 0}, {0, -10000}, {0, 20000}, {12345, -54321}}
	for _, m := range moves {
		c.Update(mgl32.Vec3{}, m, 0.1)
		assert.GreaterOrEqual(t, c.Yaw, float32(0))
		assert.Less(t, c.Yaw, float32(2*math.Pi))
		assert.Greater(t, c.Pitch, float32(-math.Pi/2))
		assert.Less(t, c.Pitch, float32(math.Pi/2))
	}

	c.Pitch = 0
	c.Update(mgl32.Vec3{}, mgl32.Vec2{0, -1e6}, 1)
	assert.Equal(t, float32(MaxPitch), c.Pitch)
	c.Update(mgl32.Vec3{}, mgl32.Vec2{0, 1e6}, 1)
	assert.Equal(t, float32(MinPitch), c.Pitch)
}

func TestWrapAngle(t *testing.T) {
	tests := []struct{ in, want float32 }{
		{0, 0},
		{1, 1},
		{-1, 2*math.Pi - 1},
		{7, 7 - 2*math.Pi},
		{2 * math.Pi, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapAngle(tt.in), 1e-5, "in=%v", tt.in)
	}
}

func TestUpdateMovesAlongCameraAxes(t *testing.T) {
	c := NewCamera()
	c.Position = mgl32.Vec3{}
	c.Update(mgl32.Vec3{0, 1, 0}, mgl32.Vec2{}, 0.5)
	assert.InDelta(t, 0.5, c.Position.Z(), 1e-6)

	c.Position = mgl32.Vec3{}
	c.Update(mgl32.Vec3{1, 0, 1}, mgl32.Vec2{}, 1)
	assert.InDelta(t, 1, c.Position.X(), 1e-6)
	assert.InDelta(t, 1, c.Position.Y(), 1e-6)

	// look input scales with dt and sensitivity
	c.Yaw = 0
	c.Update(mgl32.Vec3{}, mgl32.Vec2{10, 0}, 0.5)
	assert.InDelta(t, 10*0.5*DefaultSensitivity, c.Yaw, 1e-6)
}

func TestBasisVectors(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, c.ForwardDir())
	assertVecApprox(t, mgl32.Vec3{1, 0, 0}, c.RightDir())
	assertVecApprox(t, mgl32.Vec3{0, 1, 0}, c.UpDir())

	for _, yaw := range []float32{0, 0.7, 2, 4.5} {
		for _, pitch := range []float32{MinPitch, -0.5, 0, 1.2, MaxPitch} {
			c.Yaw, c.Pitch = yaw, pitch
			l := c.LookDir()
			assert.InDelta(t, 1, l.Len(), 1e-5)
			for _, v := range l {
				assert.False(t, math.IsNaN(float64(v)))
			}
			assert.InDelta(t, 0, l.Dot(c.RightDir()), 1e-5)
			assert.InDelta(t, 0, c.UpDir().Dot(l), 1e-5)
		}
	}
}

func assertVecApprox(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func TestNormalizeOrZero(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, normalizeOrZero(mgl32.Vec3{}))
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, normalizeOrZero(mgl32.Vec3{0, 3, 0}))
}

func TestViewProjectionInverses(t *testing.T) {
	c := NewCamera()
	c.Position = mgl32.Vec3{0.3, -0.2, -2}
	c.Yaw, c.Pitch, c.Aspect = 0.4, -0.3, 16.0/9

	u := c.Uniform()
	assertMatApprox(t, mgl32.Ident4(), u.View.Mul4(u.InvView), 1e-4)
	assertMatApprox(t, mgl32.Ident4(), u.Proj.Mul4(u.InvProj), 1e-4)

	// cross-check the float32 inverse against a float64 LU inverse
	for _, m := range []struct{ fwd, inv mgl32.Mat4 }{{u.View, u.InvView}, {u.Proj, u.InvProj}} {
		d := mat.NewDense(4, 4, nil)
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				d.Set(row, col, float64(m.fwd.At(row, col)))
			}
		}
		var inv mat.Dense
		require.NoError(t, inv.Inverse(d))
		for col := 0; col < 4; col++ {
			for row := 0; row < 4; row++ {
				assert.InDelta(t, inv.At(row, col), float64(m.inv.At(row, col)), 1e-3)
			}
		}
	}
}

func TestViewMatrixMapsEyeToOrigin(t *testing.T) {
	c := NewCamera()
	c.Yaw, c.Pitch = 1.1, 0.2
	v := c.ViewMatrix()

	eye := v.Mul4x1(c.Position.Vec4(1))
	assertVecApprox(t, mgl32.Vec3{}, eye.Vec3())

	// left-handed: a point ahead of the camera has positive view-space z
	ahead := v.Mul4x1(c.Position.Add(c.LookDir()).Vec4(1))
	assert.InDelta(t, 1, ahead.Z(), 1e-5)
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera()
	p := c.ProjectionMatrix()

	near := p.Mul4x1(mgl32.Vec4{0, 0, NearPlane, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, FarPlane, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestUniformFields(t *testing.T) {
	c := NewCamera()
	c.Yaw, c.Pitch, c.Aspect = 0.5, 0.25, 2
	u := c.Uniform()

	assert.Equal(t, c.Position, u.Position)
	assert.Equal(t, float32(2), u.Aspect)
	assert.Equal(t, c.Fov, u.Fov)
	assert.InDelta(t, math.Tan(float64(c.Fov)/2), u.FovScale, 1e-6)
	assert.Equal(t, float32(1), u.Forward.W())
	assertVecApprox(t, c.LookDir(), u.Forward.Vec3())
	assertVecApprox(t, c.RightDir(), u.Right)
	assertVecApprox(t, c.UpDir(), u.Up)
}

func TestUpdateIgnoresNonFiniteInput(t *testing.T) {
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())
	tests := []struct {
		name  string
		dir   mgl32.Vec3
		mouse mgl32.Vec2
		dt    float32
	}{
		{"inf mouse x", mgl32.Vec3{}, mgl32.Vec2{inf, 0}, 0.016},
		{"nan mouse y", mgl32.Vec3{}, mgl32.Vec2{0, nan}, 0.016},
		{"overflowing mouse", mgl32.Vec3{}, mgl32.Vec2{3e38, 3e38}, 10},
		{"inf dt", mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1}, inf},
		{"nan dt", mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1}, nan},
		{"inf dt no input", mgl32.Vec3{}, mgl32.Vec2{}, inf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera()
			c.Yaw, c.Pitch = 1, 0.5
			pos := c.Position

			c.Update(tt.dir, tt.mouse, tt.dt)
			assert.Equal(t, float32(1), c.Yaw)
			assert.Equal(t, float32(0.5), c.Pitch)
			assert.Equal(t, pos, c.Position)

			// still usable afterwards
			c.Update(mgl32.Vec3{0, 1, 0}, mgl32.Vec2{10, 0}, 0.1)
			assert.False(t, math.IsNaN(float64(c.Yaw)))
			assert.NotEqual(t, pos, c.Position)
		})
	}
}
