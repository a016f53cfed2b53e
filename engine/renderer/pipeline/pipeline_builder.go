package pipeline

import "github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"

// RootSignatureBuilderOption is a functional option used to configure a RootSignature during construction.
type RootSignatureBuilderOption func(*rootSignature)

// WithParameters replaces the root parameters. Slot i of the signature binds parameters[i].
//
// Parameters:
//   - params: the parameters in slot order
//
// Returns:
//   - RootSignatureBuilderOption: a function that sets the parameters
func WithParameters(params ...gpu.RootParameter) RootSignatureBuilderOption {
	return func(r *rootSignature) {
		r.params = params
	}
}

// WithRootSignatureLabel sets the debug label of the root signature.
func WithRootSignatureLabel(label string) RootSignatureBuilderOption {
	return func(r *rootSignature) {
		r.label = label
	}
}

// PipelineBuilderOption is a functional option used to configure a PipelineState during construction.
type PipelineBuilderOption func(*pipelineState)

// WithLabel sets the debug label of the pipeline state.
func WithLabel(label string) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Label = label
	}
}

// WithInputLayout sets the vertex input layout.
//
// Parameters:
//   - elements: the input elements
//
// Returns:
//   - PipelineBuilderOption: a function that sets the input layout
func WithInputLayout(elements ...gpu.InputElement) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.InputLayout = elements
	}
}

// WithBlendEnabled sets whether alpha blending is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether blending should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend enabled state for this pipeline
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Blend.Enable = enabled
	}
}

// WithBlendState sets the full blend state.
//
// Parameters:
//   - blend: the blend state
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(blend gpu.BlendDesc) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Blend = blend
	}
}

// WithCullMode sets the face culling mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode gpu.CullMode) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Raster.Cull = mode
	}
}

// WithFillMode sets solid or wireframe rasterization.
func WithFillMode(mode gpu.FillMode) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Raster.Fill = mode
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth test enabled state for this pipeline
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Depth.Enable = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writing is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writing should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth write enabled state for this pipeline
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Depth.Write = enabled
	}
}

// WithDepthCompare sets the depth comparison function.
func WithDepthCompare(compare gpu.CompareFunc) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.Depth.Compare = compare
	}
}

// WithRenderTargetFormat sets the format of the render target the pipeline draws into.
//
// Parameters:
//   - format: the back buffer format
//
// Returns:
//   - PipelineBuilderOption: a function that sets the render target format
func WithRenderTargetFormat(format gpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipelineState) {
		p.desc.RenderTargetFormat = format
	}
}
