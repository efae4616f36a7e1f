package core

import "github.com/go-gl/mathgl/mgl32"

type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyLeftShift
	KeyEscape
)

type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

type LockState int

const (
	Unlocked LockState = iota
	Locked
)

func (s LockState) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Input accumulates held keys and raw mouse motion between frames.
type Input struct {
	keys       map[Key]bool
	mouseDelta mgl32.Vec2
}

func NewInput() *Input {
	return &Input{keys: make(map[Key]bool)}
}

func (in *Input) SetKey(k Key, pressed bool) {
	if pressed {
		in.keys[k] = true
	} else {
		delete(in.keys, k)
	}
}

func (in *Input) Held(k Key) bool {
	return in.keys[k]
}

func (in *Input) AddMouseDelta(dx, dy float32) {
	in.mouseDelta = in.mouseDelta.Add(mgl32.Vec2{dx, dy})
}

func (in *Input) MouseDelta() mgl32.Vec2 {
	return in.mouseDelta
}

// TakeMouseDelta returns the accumulated motion and resets it.
func (in *Input) TakeMouseDelta() mgl32.Vec2 {
	d := in.mouseDelta
	in.mouseDelta = mgl32.Vec2{}
	return d
}

// Dir maps held keys to {right, forward, up} axes. Opposing keys cancel.
func (in *Input) Dir() mgl32.Vec3 {
	return mgl32.Vec3{
		in.axis(KeyA, KeyD),
		in.axis(KeyS, KeyW),
		in.axis(KeyLeftShift, KeySpace),
	}
}

func (in *Input) axis(neg, pos Key) float32 {
	var v float32
	if in.keys[neg] {
		v--
	}
	if in.keys[pos] {
		v++
	}
	return v
}
