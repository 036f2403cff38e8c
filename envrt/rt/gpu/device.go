package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context is a WebGPU device without a surface, enough for compute work.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

func NewHeadlessContext() (*Context, error) {
	c := &Context{Instance: wgpu.CreateInstance(nil)}

	adapter, err := c.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	c.Adapter = adapter

	c.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()
	return c, nil
}

func (c *Context) Release() {
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}
