package renderer

import (
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects the recording backend, which needs no GPU or window.
	BackendTypeHeadless
)

func (b RendererBackendType) String() string {
	switch b {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeHeadless:
		return "headless"
	default:
		return "unknown"
	}
}

// ParseBackendType maps a configuration name onto a RendererBackendType.
//
// Parameters:
//   - name: "wgpu" or "headless"
//
// Returns:
//   - RendererBackendType: the backend
//   - error: an error if the name is unknown
func ParseBackendType(name string) (RendererBackendType, error) {
	switch name {
	case "wgpu", "":
		return BackendTypeWGPU, nil
	case "headless":
		return BackendTypeHeadless, nil
	default:
		return 0, errors.Newf("unknown renderer backend %q", name)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// newInstance creates the gpu.Instance for a backend. The WebGPU backend presents to surface; the
// headless backend sizes its swap chains to width x height.
func newInstance(backend RendererBackendType, surface *wgpu.SurfaceDescriptor, width, height uint32) (gpu.Instance, error) {
	switch backend {
	case BackendTypeWGPU:
		if surface == nil {
			return nil, errors.New("wgpu backend needs a window surface descriptor")
		}
		return gpu.NewWGPUInstance(surface), nil
	case BackendTypeHeadless:
		return gpu.NewHeadlessInstance(gpu.WithHeadlessSurfaceSize(width, height)), nil
	default:
		return nil, errors.Newf("unsupported renderer backend %s", backend)
	}
}
