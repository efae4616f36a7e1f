package gpu

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/particlesdf/rt/core"
	"github.com/gekko3d/particlesdf/rt/field"
	"github.com/gekko3d/particlesdf/rt/particles"
)

type RendererOptions struct {
	Grid               field.Grid
	ParticlesPerBundle int
	// Static computes the field once on the CPU and uploads it; no compute
	// pipelines are created.
	Static bool
	// RebuildEveryFrame reruns clear+accumulate each frame; otherwise only
	// after SetParticles.
	RebuildEveryFrame bool
	Logger            core.Logger
}

// FrameStats describes the GPU work recorded for one frame.
type FrameStats struct {
	Rebuilt bool
	Bundles int
	Slot    field.Slot
	Encode  time.Duration
	Submit  time.Duration
}

// fieldState tracks which slot holds the latest field and whether the
// particle set changed since it was built.
type fieldState struct {
	final field.Slot
	dirty bool
}

func shouldRebuild(static, dirty, everyFrame bool) bool {
	return !static && (dirty || everyFrame)
}

// commit records a submitted frame. Frames that never reach the queue must
// not call it, so a pending rebuild survives a skipped frame.
func (s *fieldState) commit(rebuilt bool, slot field.Slot) {
	if !rebuilt {
		return
	}
	s.final = slot
	s.dirty = false
}

// Renderer sequences the field build and the raymarch pass on one surface.
type Renderer struct {
	Ctx   *Context
	Field *FieldBuilder
	March *Raymarcher

	opts   RendererOptions
	log    core.Logger
	state  fieldState
	layout field.BundleLayout
}

func NewRenderer(ctx *Context, opts RendererOptions) (*Renderer, error) {
	if opts.ParticlesPerBundle == 0 {
		opts.ParticlesPerBundle = field.DefaultParticlesPerBundle
	}
	layout, err := field.NewBundleLayout(opts.ParticlesPerBundle, ctx.StorageAlignment())
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		Ctx:    ctx,
		opts:   opts,
		log:    core.OrNop(opts.Logger),
		layout: layout,
		state:  fieldState{dirty: true},
	}
	r.Field, err = NewFieldBuilder(ctx.Device, opts.Grid, layout, !opts.Static)
	if err != nil {
		return nil, err
	}
	r.March, err = NewRaymarcher(ctx.Device, ctx.Config.Format, opts.Grid, r.Field.Views)
	if err != nil {
		return nil, err
	}
	if opts.Static {
		// empty field until particles arrive
		if err := r.uploadStatic(nil); err != nil {
			return nil, err
		}
	}
	r.log.Infof("renderer ready: grid %v, %d particles/bundle, stride %d bytes, static=%v",
		opts.Grid.Resolution, layout.ParticlesPerBundle, layout.Stride, opts.Static)
	return r, nil
}

func (r *Renderer) Layout() field.BundleLayout {
	return r.layout
}

// SetParticles replaces the particle set. Trailing particles that do not fill
// a bundle are dropped.
func (r *Renderer) SetParticles(ps []particles.Particle) error {
	if dropped := len(ps) - len(r.layout.Truncate(ps)); dropped > 0 {
		r.log.Debugf("dropping %d trailing particles (bundle size %d)", dropped, r.layout.ParticlesPerBundle)
	}
	if r.opts.Static {
		return r.uploadStatic(ps)
	}
	if err := r.Field.SetParticles(ps); err != nil {
		return err
	}
	r.state.dirty = true
	return nil
}

func (r *Renderer) uploadStatic(ps []particles.Particle) error {
	data := field.Build(r.opts.Grid, r.layout, ps)
	if err := r.Field.UploadField(field.Front, data); err != nil {
		return err
	}
	r.state.final = field.Front
	r.Field.Bundles = r.layout.Count(len(ps))
	return nil
}

func (r *Renderer) Resize(width, height int) {
	r.Ctx.Resize(width, height)
}

// RenderFrame uploads uniforms, rebuilds the field when needed and draws.
// Failing to acquire the surface texture returns an error wrapping
// ErrFrameSkipped; any other error is fatal.
func (r *Renderer) RenderFrame(u core.FrameUniforms) (FrameStats, error) {
	stats := FrameStats{Slot: r.state.final}

	surfaceTex, err := r.Ctx.Surface.GetCurrentTexture()
	if err != nil {
		// outdated or lost surfaces recover after a reconfigure
		r.Ctx.Surface.Configure(r.Ctx.Adapter, r.Ctx.Device, r.Ctx.Config)
		return stats, fmt.Errorf("%w: acquire surface texture: %v", ErrFrameSkipped, err)
	}
	defer surfaceTex.Release()

	view, err := surfaceTex.CreateView(nil)
	if err != nil {
		return stats, fmt.Errorf("%w: create surface view: %v", ErrFrameSkipped, err)
	}
	defer view.Release()

	encodeStart := time.Now()
	r.March.WriteUniforms(u)

	encoder, err := r.Ctx.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Frame"})
	if err != nil {
		return stats, fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	rebuild := shouldRebuild(r.opts.Static, r.state.dirty, r.opts.RebuildEveryFrame)
	slot := r.state.final
	if rebuild {
		slot, err = r.Field.Encode(encoder)
		if err != nil {
			return stats, err
		}
	}

	if err := r.March.Draw(encoder, view, slot); err != nil {
		return stats, err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return stats, fmt.Errorf("finish frame encoder: %w", err)
	}
	defer cmd.Release()

	submitStart := time.Now()
	r.Ctx.Queue.Submit(cmd)
	r.Ctx.Surface.Present()

	r.state.commit(rebuild, slot)
	return FrameStats{
		Rebuilt: rebuild,
		Bundles: r.Field.Bundles,
		Slot:    slot,
		Encode:  submitStart.Sub(encodeStart),
		Submit:  time.Since(submitStart),
	}, nil
}

func (r *Renderer) Release() {
	if r.March != nil {
		r.March.Release()
	}
	if r.Field != nil {
		r.Field.Release()
	}
}
