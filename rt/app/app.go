package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/particlesdf/rt/core"
	"github.com/gekko3d/particlesdf/rt/gpu"
	"github.com/gekko3d/particlesdf/rt/particles"
)

// FrameRenderer is the GPU side of a frame. *gpu.Renderer implements it.
type FrameRenderer interface {
	Resize(width, height int)
	RenderFrame(u core.FrameUniforms) (gpu.FrameStats, error)
	SetParticles(ps []particles.Particle) error
}

// Cursor is the host's pointer. Capture hides and confines it, Release
// restores it.
type Cursor interface {
	Capture()
	Release()
	Recenter()
}

type Options struct {
	Logger    core.Logger
	Camera    *core.Camera
	Telemetry *FrameTelemetry
	// Now defaults to time.Now.
	Now func() time.Time
}

// App owns the per-frame state: camera, held input, cursor lock and timing.
// It is not safe for concurrent use; the host calls it from the main thread.
type App struct {
	Renderer  FrameRenderer
	Cursor    Cursor
	Camera    *core.Camera
	Input     *core.Input
	Profiler  *Profiler
	Telemetry *FrameTelemetry

	State  core.LockState
	Width  int
	Height int
	Frame  int

	log   core.Logger
	now   func() time.Time
	start time.Time
	last  time.Time
}

func New(r FrameRenderer, c Cursor, width, height int, opts Options) *App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cam := opts.Camera
	if cam == nil {
		cam = core.NewCamera()
	}
	t := now()
	a := &App{
		Renderer:  r,
		Cursor:    c,
		Camera:    cam,
		Input:     core.NewInput(),
		Profiler:  NewProfiler(),
		Telemetry: opts.Telemetry,
		log:       core.OrNop(opts.Logger),
		now:       now,
		start:     t,
		last:      t,
	}
	a.setSize(width, height)
	return a
}

func (a *App) setSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.Width, a.Height = width, height
	a.Camera.Aspect = float32(width) / float32(height)
}

// Resize follows the framebuffer. Zero sizes from minimised windows keep the
// previous size.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		a.log.Debugf("ignoring resize to %dx%d", width, height)
		return
	}
	a.setSize(width, height)
	a.Renderer.Resize(width, height)
}

// MouseDelta accumulates raw pointer motion. Motion while unlocked is dropped.
func (a *App) MouseDelta(dx, dy float32) {
	if a.State != core.Locked {
		return
	}
	a.Input.AddMouseDelta(dx, dy)
}

func (a *App) KeyEvent(key core.Key, pressed bool) {
	a.Input.SetKey(key, pressed)
	if key == core.KeyEscape && pressed && a.State == core.Locked {
		a.unlock()
	}
}

func (a *App) MouseButton(button core.MouseButton, pressed bool) {
	if button == core.MouseButtonLeft && pressed && a.State == core.Unlocked {
		a.lock()
	}
}

func (a *App) lock() {
	a.Input.TakeMouseDelta()
	a.Cursor.Capture()
	a.State = core.Locked
	a.log.Debugf("cursor %s", a.State)
}

func (a *App) unlock() {
	a.Input.TakeMouseDelta()
	a.Cursor.Release()
	a.State = core.Unlocked
	a.log.Debugf("cursor %s", a.State)
}

func (a *App) SetParticles(ps []particles.Particle) error {
	if err := particles.Validate(ps); err != nil {
		return err
	}
	if err := a.Renderer.SetParticles(ps); err != nil {
		return fmt.Errorf("set particles: %w", err)
	}
	a.log.Infof("particle set replaced: %d particles", len(ps))
	return nil
}

// Uniforms advances the camera by one tick and returns the frame uniforms.
func (a *App) Uniforms() core.FrameUniforms {
	t := a.now()
	dt := float32(t.Sub(a.last).Seconds())
	a.last = t

	var look mgl32.Vec2
	if a.State == core.Locked {
		look = a.Input.TakeMouseDelta()
		a.Cursor.Recenter()
	} else {
		a.Input.TakeMouseDelta()
	}
	a.Camera.Update(a.Input.Dir(), look, dt)

	return core.FrameUniforms{
		Camera: a.Camera.Uniform(),
		Screen: core.NewScreenUniform(a.Width, a.Height),
		Time:   core.NewTimeUniform(t.Sub(a.start)),
	}
}

// Render runs one frame. A skipped frame is logged and is not an error.
func (a *App) Render() error {
	a.Profiler.Reset()
	a.Profiler.BeginScope(ScopeUpdate)
	u := a.Uniforms()
	a.Profiler.EndScope(ScopeUpdate)

	stats, err := a.Renderer.RenderFrame(u)
	skipped := errors.Is(err, gpu.ErrFrameSkipped)
	if err != nil && !skipped {
		return fmt.Errorf("render frame %d: %w", a.Frame, err)
	}
	if skipped {
		a.log.Warnf("frame %d skipped: %v", a.Frame, err)
	}

	a.Profiler.Record(ScopeEncode, stats.Encode)
	a.Profiler.Record(ScopeSubmit, stats.Submit)
	a.Profiler.SetCount("bundles", stats.Bundles)
	if a.log.DebugEnabled() {
		a.log.Debugf("frame %d: %s", a.Frame, a.Profiler.Summary())
	}

	rec := FrameRecord{
		Frame:    a.Frame,
		Elapsed:  float64(u.Time.Seconds),
		UpdateMs: ms(a.Profiler.Scope(ScopeUpdate)),
		EncodeMs: ms(stats.Encode),
		SubmitMs: ms(stats.Submit),
		Bundles:  stats.Bundles,
		Rebuilt:  stats.Rebuilt,
		Skipped:  skipped,
		Locked:   a.State == core.Locked,
	}
	if err := a.Telemetry.Record(rec); err != nil {
		a.log.Warnf("%v", err)
	}
	a.Frame++
	return nil
}

// Close flushes any buffered telemetry.
func (a *App) Close() error {
	return a.Telemetry.Flush()
}
