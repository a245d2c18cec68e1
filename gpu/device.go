package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle is an alias for gpucontext.DeviceProvider, the interface a
// host application implements to hand this backend a shared GPU device
// instead of having it create one, following the teacher's DeviceHandle
// (render/device.go). splatcore's GPU backend receives a device; it never
// creates one.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations,
// grounded on the teacher's own NullDeviceHandle (render/device.go),
// which documents itself as "used for CPU-only rendering where no GPU is
// available" — exactly this package's situation until a real
// adapter/device pair is wired in.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns TextureFormatUndefined for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo returns AdapterTypeUnknown for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

var _ DeviceHandle = NullDeviceHandle{}

// SetDeviceProvider gives the backend a host-supplied GPU device,
// following the teacher's gpu.SetDeviceProvider. A nil provider resets
// the backend to NullDeviceHandle. The provider is not yet read by
// Render (see the package doc), but callers can start threading a real
// device through ahead of that wiring landing.
func (b *Backend) SetDeviceProvider(provider DeviceHandle) {
	if provider == nil {
		provider = NullDeviceHandle{}
	}
	b.device = provider
}
