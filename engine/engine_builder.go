package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lite/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow hands the engine an already open window instead of creating one from the configuration.
// The engine takes ownership and closes it on shutdown.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithLogger sets the base logger. The engine adds its run id to every record.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logger
	}
}

// WithProfiling enables or disables performance profiling output, overriding the configuration.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithShaderOptions passes options through to shader compilation.
//
// Parameters:
//   - options: shader builder options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderOptions(options ...shader.ShaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.shaderOptions = append(e.shaderOptions, options...)
	}
}

// WithRendererOptions passes options through to the renderer after the ones derived from the configuration.
//
// Parameters:
//   - options: renderer builder options
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithFrameCallback registers a function called after every simulated frame, before it is rendered.
//
// Parameters:
//   - callback: function receiving the frame number and the frame delta in seconds
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameCallback(callback func(frame uint64, deltaTime float32)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}
