package core

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	CameraUniformSize = 320
	ScreenUniformSize = 8
	TimeUniformSize   = 4
)

// CameraUniform mirrors the WGSL Camera struct:
//
//	position: vec3<f32>  -- 0
//	aspect: f32          -- 12
//	right: vec3<f32>     -- 16
//	fov: f32             -- 28
//	up: vec3<f32>        -- 32
//	fov_scale: f32       -- 44
//	forward: vec4<f32>   -- 48
//	proj: mat4x4<f32>    -- 64
//	view: mat4x4<f32>    -- 128
//	inv_proj: mat4x4<f32> -- 192
//	inv_view: mat4x4<f32> -- 256
//	-> 320 bytes
type CameraUniform struct {
	Position mgl32.Vec3
	Aspect   float32
	Right    mgl32.Vec3
	Fov      float32
	Up       mgl32.Vec3
	FovScale float32
	Forward  mgl32.Vec4
	Proj     mgl32.Mat4
	View     mgl32.Mat4
	InvProj  mgl32.Mat4
	InvView  mgl32.Mat4
}

func (u CameraUniform) Bytes() []byte {
	buf := make([]byte, CameraUniformSize)
	putVec3(buf[0:], u.Position)
	putF32(buf[12:], u.Aspect)
	putVec3(buf[16:], u.Right)
	putF32(buf[28:], u.Fov)
	putVec3(buf[32:], u.Up)
	putF32(buf[44:], u.FovScale)
	for i, v := range u.Forward {
		putF32(buf[48+i*4:], v)
	}
	putMat4(buf[64:], u.Proj)
	putMat4(buf[128:], u.View)
	putMat4(buf[192:], u.InvProj)
	putMat4(buf[256:], u.InvView)
	return buf
}

type ScreenUniform struct {
	Width  float32
	Height float32
}

func NewScreenUniform(width, height int) ScreenUniform {
	return ScreenUniform{Width: float32(width), Height: float32(height)}
}

func (u ScreenUniform) Bytes() []byte {
	buf := make([]byte, ScreenUniformSize)
	putF32(buf[0:], u.Width)
	putF32(buf[4:], u.Height)
	return buf
}

type TimeUniform struct {
	Seconds float32
}

func NewTimeUniform(elapsed time.Duration) TimeUniform {
	return TimeUniform{Seconds: float32(elapsed.Seconds())}
}

func (u TimeUniform) Bytes() []byte {
	buf := make([]byte, TimeUniformSize)
	putF32(buf, u.Seconds)
	return buf
}

// FrameUniforms is everything the renderer uploads for one frame.
type FrameUniforms struct {
	Camera CameraUniform
	Screen ScreenUniform
	Time   TimeUniform
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func putVec3(b []byte, v mgl32.Vec3) {
	for i, c := range v {
		putF32(b[i*4:], c)
	}
}

// putMat4 writes m column-major, matching WGSL mat4x4 storage.
func putMat4(b []byte, m mgl32.Mat4) {
	for i, v := range m {
		putF32(b[i*4:], v)
	}
}
