package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrFrameSkipped marks a recoverable per-frame failure; the caller should
// log it and try again next tick.
var ErrFrameSkipped = errors.New("frame skipped")

// Context owns the device and the presentation surface.
type Context struct {
	Instance *wgpu.Instance
	Surface  *wgpu.Surface
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Config   *wgpu.SurfaceConfiguration
	Limits   wgpu.Limits
}

func ParsePresentMode(s string) (wgpu.PresentMode, error) {
	switch s {
	case "", "fifo":
		return wgpu.PresentModeFifo, nil
	case "immediate":
		return wgpu.PresentModeImmediate, nil
	case "mailbox":
		return wgpu.PresentModeMailbox, nil
	}
	return 0, fmt.Errorf("unknown present mode %q", s)
}

// NewContext acquires an adapter and device compatible with the surface and
// configures the surface for width x height.
func NewContext(surfaceDesc *wgpu.SurfaceDescriptor, width, height int, presentMode wgpu.PresentMode) (*Context, error) {
	c := &Context{Instance: wgpu.CreateInstance(nil)}
	c.Surface = c.Instance.CreateSurface(surfaceDesc)

	adapter, err := c.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: c.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	c.Adapter = adapter
	c.Limits = adapter.GetLimits().Limits

	c.Device, err = adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()

	caps := c.Surface.GetCapabilities(adapter)
	format, err := firstSupported("formats", caps.Formats)
	if err != nil {
		return nil, err
	}
	alphaMode, err := firstSupported("alpha modes", caps.AlphaModes)
	if err != nil {
		return nil, err
	}
	c.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   alphaMode,
	}
	c.Surface.Configure(adapter, c.Device, c.Config)
	return c, nil
}

// firstSupported picks the surface's preferred capability.
func firstSupported[T any](what string, supported []T) (T, error) {
	var zero T
	if len(supported) == 0 {
		return zero, fmt.Errorf("surface reports no supported %s", what)
	}
	return supported[0], nil
}

// StorageAlignment is the dynamic offset alignment for storage buffers.
func (c *Context) StorageAlignment() uint32 {
	if c.Limits.MinStorageBufferOffsetAlignment == 0 {
		return 256
	}
	return c.Limits.MinStorageBufferOffsetAlignment
}

// Resize reconfigures the surface. Zero sizes (minimised windows) are ignored.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Config.Width = uint32(width)
	c.Config.Height = uint32(height)
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
}

func (c *Context) Release() {
	if c.Device != nil {
		c.Device.Release()
	}
	if c.Adapter != nil {
		c.Adapter.Release()
	}
	if c.Surface != nil {
		c.Surface.Release()
	}
	if c.Instance != nil {
		c.Instance.Release()
	}
}
