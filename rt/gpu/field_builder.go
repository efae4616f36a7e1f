package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/x448/float16"

	"github.com/gekko3d/particlesdf/rt/field"
	"github.com/gekko3d/particlesdf/rt/particles"
	"github.com/gekko3d/particlesdf/rt/shaders"
)

const FieldFormat = wgpu.TextureFormatRGBA16Float

// texelSize is the byte size of one RGBA16Float texel.
const texelSize = 8

// FieldBuilder owns the front/back field textures and, in dynamic mode, the
// clear/accumulate compute pipelines that fill them from the particle buffer.
type FieldBuilder struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue
	Grid   field.Grid
	Layout field.BundleLayout

	Textures [2]*wgpu.Texture
	Views    [2]*wgpu.TextureView

	BindGroupLayout    *wgpu.BindGroupLayout
	ClearPipeline      *wgpu.ComputePipeline
	AccumulatePipeline *wgpu.ComputePipeline

	ParticleBuf *wgpu.Buffer
	// BindGroups[s] writes slot s and samples s.Other().
	BindGroups [2]*wgpu.BindGroup

	Bundles int
}

// NewFieldBuilder creates both field textures. When compute is false no
// pipelines are created and the field must come from UploadField.
func NewFieldBuilder(device *wgpu.Device, grid field.Grid, layout field.BundleLayout, compute bool) (*FieldBuilder, error) {
	b := &FieldBuilder{
		Device: device,
		Queue:  device.GetQueue(),
		Grid:   grid,
		Layout: layout,
	}
	if err := b.createTextures(); err != nil {
		return nil, err
	}
	if !compute {
		return b, nil
	}
	if err := b.createPipelines(); err != nil {
		return nil, err
	}
	if err := b.SetParticles(nil); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FieldBuilder) extent() wgpu.Extent3D {
	return wgpu.Extent3D{
		Width:              uint32(b.Grid.Resolution[0]),
		Height:             uint32(b.Grid.Resolution[1]),
		DepthOrArrayLayers: uint32(b.Grid.Resolution[2]),
	}
}

func (b *FieldBuilder) createTextures() error {
	for s := field.Front; s <= field.Back; s++ {
		tex, err := b.Device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         fmt.Sprintf("SDF Field (%s)", s),
			Size:          b.extent(),
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension3D,
			Format:        FieldFormat,
			Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create field texture %s: %w", s, err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			return fmt.Errorf("create field view %s: %w", s, err)
		}
		b.Textures[s] = tex
		b.Views[s] = view
	}
	return nil
}

func (b *FieldBuilder) createPipelines() error {
	module, err := b.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "SDF Compute",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.WithBounds(shaders.ComputeWGSL, b.Grid.Min, b.Grid.Max)},
	})
	if err != nil {
		return fmt.Errorf("compile compute shader: %w", err)
	}
	defer module.Release()

	b.BindGroupLayout, err = b.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SDF Compute BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeReadOnlyStorage,
					HasDynamicOffset: true,
					MinBindingSize:   b.Layout.BindingSize(),
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessWriteOnly,
					Format:        FieldFormat,
					ViewDimension: wgpu.TextureViewDimension3D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension3D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create compute bind group layout: %w", err)
	}

	layout, err := b.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "SDF Compute Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.BindGroupLayout},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline layout: %w", err)
	}
	defer layout.Release()

	b.ClearPipeline, err = b.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "SDF Clear",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "cs_clear",
		},
	})
	if err != nil {
		return fmt.Errorf("create clear pipeline: %w", err)
	}

	b.AccumulatePipeline, err = b.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "SDF Accumulate",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "cs_accumulate",
		},
	})
	if err != nil {
		return fmt.Errorf("create accumulate pipeline: %w", err)
	}
	return nil
}

// SetParticles uploads the full bundles of ps. Trailing particles are dropped.
// The storage buffer and bind groups are recreated when the buffer grows.
func (b *FieldBuilder) SetParticles(ps []particles.Particle) error {
	if b.BindGroupLayout == nil {
		return fmt.Errorf("field builder has no compute pipelines")
	}
	data := b.Layout.Pack(b.Layout.Truncate(ps))
	bundles := b.Layout.Count(len(ps))

	size := uint64(len(data))
	if b.ParticleBuf != nil && b.ParticleBuf.GetSize() >= size {
		b.Queue.WriteBuffer(b.ParticleBuf, 0, data)
		b.Bundles = bundles
		return nil
	}

	buf, err := b.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Particle Buffer",
		Contents: data,
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create particle buffer: %w", err)
	}
	swapRelease(&b.ParticleBuf, buf)
	if err := b.createBindGroups(); err != nil {
		return err
	}
	b.Bundles = bundles
	return nil
}

// swapRelease stores next in *slot and releases what it replaced. Callers
// create next first so a failed create leaves *slot valid.
func swapRelease[T any, P interface {
	*T
	Release()
}](slot *P, next P) {
	if old := *slot; old != nil && old != next {
		old.Release()
	}
	*slot = next
}

func (b *FieldBuilder) createBindGroups() error {
	for dst := field.Front; dst <= field.Back; dst++ {
		bg, err := b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("SDF Compute (write %s)", dst),
			Layout: b.BindGroupLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: b.ParticleBuf, Offset: 0, Size: b.Layout.BindingSize()},
				{Binding: 1, TextureView: b.Views[dst]},
				{Binding: 2, TextureView: b.Views[dst.Other()]},
			},
		})
		if err != nil {
			return fmt.Errorf("create compute bind group %s: %w", dst, err)
		}
		swapRelease(&b.BindGroups[dst], bg)
	}
	return nil
}

type pipelineKind int

const (
	clearPipeline pipelineKind = iota
	accumulatePipeline
)

// dispatch is one recorded compute dispatch. BindGroup indexes
// FieldBuilder.BindGroups, which writes that slot and samples the other.
type dispatch struct {
	Pipeline  pipelineKind
	BindGroup field.Slot
	Offset    uint32
}

func dispatches(plan field.Plan, layout field.BundleLayout) []dispatch {
	out := make([]dispatch, len(plan.Steps))
	for i, st := range plan.Steps {
		switch st.Kind {
		case field.StepClear:
			out[i] = dispatch{Pipeline: clearPipeline, BindGroup: st.Dst}
		case field.StepAccumulate:
			out[i] = dispatch{Pipeline: accumulatePipeline, BindGroup: st.Dst, Offset: layout.Offset(st.Bundle)}
		}
	}
	return out
}

// Encode records the clear and accumulate dispatches into one compute pass
// and returns the slot holding the finished field. Ordering between bundles
// comes from encode order within the pass.
func (b *FieldBuilder) Encode(encoder *wgpu.CommandEncoder) (field.Slot, error) {
	if b.ClearPipeline == nil {
		return field.Front, fmt.Errorf("field builder has no compute pipelines")
	}
	plan := field.NewPlan(b.Bundles)
	wx, wy, wz := b.Grid.Dispatch(field.Workgroup)

	pipelines := [...]*wgpu.ComputePipeline{clearPipeline: b.ClearPipeline, accumulatePipeline: b.AccumulatePipeline}

	pass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "SDF Build"})
	current := pipelineKind(-1)
	for _, d := range dispatches(plan, b.Layout) {
		if d.Pipeline != current {
			pass.SetPipeline(pipelines[d.Pipeline])
			current = d.Pipeline
		}
		pass.SetBindGroup(0, b.BindGroups[d.BindGroup], []uint32{d.Offset})
		pass.DispatchWorkgroups(wx, wy, wz)
	}
	if err := pass.End(); err != nil {
		return field.Front, fmt.Errorf("end field build pass: %w", err)
	}
	return plan.Final(), nil
}

// UploadField writes a CPU-built field into slot.
func (b *FieldBuilder) UploadField(s field.Slot, data []float32) error {
	if len(data) != b.Grid.Len() {
		return fmt.Errorf("field has %d voxels, grid needs %d", len(data), b.Grid.Len())
	}
	ext := b.extent()
	err := b.Queue.WriteTexture(
		b.Textures[s].AsImageCopy(),
		PackHalfTexels(data),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  ext.Width * texelSize,
			RowsPerImage: ext.Height,
		},
		&ext,
	)
	if err != nil {
		return fmt.Errorf("upload field %s: %w", s, err)
	}
	return nil
}

// PackHalfTexels encodes distances as RGBA16Float texels (distance, 0, 0, 1).
func PackHalfTexels(data []float32) []byte {
	one := float16.Fromfloat32(1).Bits()
	out := make([]byte, len(data)*texelSize)
	for i, d := range data {
		h := float16.Fromfloat32(d).Bits()
		o := i * texelSize
		out[o], out[o+1] = byte(h), byte(h>>8)
		out[o+6], out[o+7] = byte(one), byte(one>>8)
	}
	return out
}

func (b *FieldBuilder) Release() {
	for s := range b.BindGroups {
		if b.BindGroups[s] != nil {
			b.BindGroups[s].Release()
		}
	}
	if b.ParticleBuf != nil {
		b.ParticleBuf.Release()
	}
	if b.ClearPipeline != nil {
		b.ClearPipeline.Release()
	}
	if b.AccumulatePipeline != nil {
		b.AccumulatePipeline.Release()
	}
	if b.BindGroupLayout != nil {
		b.BindGroupLayout.Release()
	}
	for s := range b.Views {
		if b.Views[s] != nil {
			b.Views[s].Release()
		}
		if b.Textures[s] != nil {
			b.Textures[s].Release()
		}
	}
}
