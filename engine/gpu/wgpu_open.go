package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// OpenWGPUDevice acquires a WebGPU adapter and device without a presentation surface and wraps
// them in a WGPUDevice. The returned device owns the instance and adapter; Release frees them.
//
// Parameters:
//   - label: the device label reported by validation errors
//   - forceFallbackAdapter: request the software fallback adapter
//
// Returns:
//   - *WGPUDevice: the device
//   - error: when no adapter or device could be acquired
func OpenWGPUDevice(label string, forceFallbackAdapter bool) (*WGPUDevice, error) {
	instance := wgpu.CreateInstance(nil)

	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("gpu: request adapter: %w", err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		a.Release()
		instance.Release()
		return nil, fmt.Errorf("gpu: request device: %w", err)
	}

	dev, err := NewWGPUDevice(d)
	if err != nil {
		d.Release()
		a.Release()
		instance.Release()
		return nil, err
	}
	dev.instance = instance
	dev.adapter = a
	return dev, nil
}
