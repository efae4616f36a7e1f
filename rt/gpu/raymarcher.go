package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/particlesdf/rt/core"
	"github.com/gekko3d/particlesdf/rt/field"
	"github.com/gekko3d/particlesdf/rt/shaders"
)

// quadVertices is the procedural full-screen quad drawn without a vertex buffer.
const quadVertices = 6

// Raymarcher draws the field with one full-screen pass.
type Raymarcher struct {
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Pipeline *wgpu.RenderPipeline
	Layout   *wgpu.BindGroupLayout
	Sampler  *wgpu.Sampler

	ScreenBuf *wgpu.Buffer
	CameraBuf *wgpu.Buffer
	TimeBuf   *wgpu.Buffer

	// BindGroups[s] samples field slot s.
	BindGroups [2]*wgpu.BindGroup
}

func NewRaymarcher(device *wgpu.Device, format wgpu.TextureFormat, grid field.Grid, views [2]*wgpu.TextureView) (*Raymarcher, error) {
	r := &Raymarcher{Device: device, Queue: device.GetQueue()}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Raymarch VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.WithBounds(shaders.RaymarchWGSL, grid.Min, grid.Max)},
	})
	if err != nil {
		return nil, fmt.Errorf("compile raymarch shader: %w", err)
	}
	defer module.Release()

	uniform := func(binding uint32, size uint64) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: size,
			},
		}
	}
	r.Layout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Raymarch BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniform(0, core.ScreenUniformSize),
			uniform(1, core.CameraUniformSize),
			uniform(2, core.TimeUniformSize),
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension3D,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create raymarch bind group layout: %w", err)
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Raymarch Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.Layout},
	})
	if err != nil {
		return nil, fmt.Errorf("create raymarch pipeline layout: %w", err)
	}
	defer layout.Release()

	r.Pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Raymarch Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create raymarch pipeline: %w", err)
	}

	r.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "SDF Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create field sampler: %w", err)
	}

	if r.ScreenBuf, err = r.uniformBuffer("Screen Buffer", core.ScreenUniformSize); err != nil {
		return nil, err
	}
	if r.CameraBuf, err = r.uniformBuffer("Camera Buffer", core.CameraUniformSize); err != nil {
		return nil, err
	}
	if r.TimeBuf, err = r.uniformBuffer("Time Buffer", core.TimeUniformSize); err != nil {
		return nil, err
	}

	for s := field.Front; s <= field.Back; s++ {
		r.BindGroups[s], err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("Raymarch (%s)", s),
			Layout: r.Layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: r.ScreenBuf, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: r.CameraBuf, Size: wgpu.WholeSize},
				{Binding: 2, Buffer: r.TimeBuf, Size: wgpu.WholeSize},
				{Binding: 3, Sampler: r.Sampler},
				{Binding: 4, TextureView: views[s]},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create raymarch bind group %s: %w", s, err)
		}
	}
	return r, nil
}

func (r *Raymarcher) uniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf, err := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return buf, nil
}

func (r *Raymarcher) WriteUniforms(u core.FrameUniforms) {
	r.Queue.WriteBuffer(r.ScreenBuf, 0, u.Screen.Bytes())
	r.Queue.WriteBuffer(r.CameraBuf, 0, u.Camera.Bytes())
	r.Queue.WriteBuffer(r.TimeBuf, 0, u.Time.Bytes())
}

// Draw records the full-screen pass into target, sampling field slot s.
func (r *Raymarcher) Draw(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, s field.Slot) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Raymarch Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(r.Pipeline)
	pass.SetBindGroup(0, r.BindGroups[s], nil)
	pass.Draw(quadVertices, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("end raymarch pass: %w", err)
	}
	return nil
}

func (r *Raymarcher) Release() {
	for s := range r.BindGroups {
		if r.BindGroups[s] != nil {
			r.BindGroups[s].Release()
		}
	}
	for _, b := range []*wgpu.Buffer{r.ScreenBuf, r.CameraBuf, r.TimeBuf} {
		if b != nil {
			b.Release()
		}
	}
	if r.Sampler != nil {
		r.Sampler.Release()
	}
	if r.Pipeline != nil {
		r.Pipeline.Release()
	}
	if r.Layout != nil {
		r.Layout.Release()
	}
}
