package renderer

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend selects the GPU backend. The default is BackendTypeWGPU.
//
// Parameters:
//   - backend: the backend type
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend RendererBackendType) RendererBuilderOption {
	return func(r *renderer) {
		r.backendType = backend
	}
}

// WithSurfaceDescriptor sets the window surface the WebGPU backend presents to.
//
// Parameters:
//   - desc: the platform surface descriptor from the window
//
// Returns:
//   - RendererBuilderOption: a function that applies the surface option to a renderer
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) RendererBuilderOption {
	return func(r *renderer) {
		r.surface = desc
	}
}

// WithInstance supplies an already created instance instead of creating one for the backend.
// The renderer does not release a supplied instance.
//
// Parameters:
//   - instance: the instance to select adapters from
//
// Returns:
//   - RendererBuilderOption: a function that applies the instance option to a renderer
func WithInstance(instance gpu.Instance) RendererBuilderOption {
	return func(r *renderer) {
		r.instance = instance
		r.ownsInstance = false
	}
}

// WithSize sets the initial client size in pixels.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height uint32) RendererBuilderOption {
	return func(r *renderer) {
		r.width, r.height = width, height
	}
}

// WithBufferCount sets the number of swap chain back buffers, which is also the number of frames in flight.
//
// Parameters:
//   - n: the buffer count, at least 2
//
// Returns:
//   - RendererBuilderOption: a function that applies the buffer count option to a renderer
func WithBufferCount(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.bufferCount = n
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithCBVHeapSize sets the capacity of the shader-visible constant buffer heap.
//
// Parameters:
//   - n: the number of constant buffer views
//
// Returns:
//   - RendererBuilderOption: a function that applies the heap size option to a renderer
func WithCBVHeapSize(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.cbvHeapSize = n
	}
}

// WithShader sets the compiled shader the pipeline state is built from.
//
// Parameters:
//   - sh: the shader
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader option to a renderer
func WithShader(sh shader.Shader) RendererBuilderOption {
	return func(r *renderer) {
		r.shader = sh
	}
}

// WithShaderPath sets the WGSL file compiled when no shader is supplied with WithShader.
//
// Parameters:
//   - path: the shader source path
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader path option to a renderer
func WithShaderPath(path string) RendererBuilderOption {
	return func(r *renderer) {
		r.shaderPath = path
	}
}

// WithFenceTimeout bounds every wait on the frame fence. Zero waits without bound.
//
// Parameters:
//   - d: the timeout
//
// Returns:
//   - RendererBuilderOption: a function that applies the timeout option to a renderer
func WithFenceTimeout(d time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		r.fenceTimeout = d
	}
}

// WithFeatureLevels sets the level adapters are probed at and the level the device is created at.
//
// Parameters:
//   - minimum: the probe level
//   - creation: the device creation level
//
// Returns:
//   - RendererBuilderOption: a function that applies the feature level option to a renderer
func WithFeatureLevels(minimum, creation gpu.FeatureLevel) RendererBuilderOption {
	return func(r *renderer) {
		r.minLevel, r.creationLevel = minimum, creation
	}
}

// WithForceSoftwareRenderer allows adapter selection to pick a software rasterizer.
// This requires a software Vulkan ICD to be installed on the system (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to accept software adapters, false to skip them (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithLogger sets the logger used for device selection and frame diagnostics.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logger
	}
}
