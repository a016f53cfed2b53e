package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/cockroachdb/errors"
)

const (
	// SlotScene is the root parameter slot holding the scene-wide constants (view and projection).
	SlotScene uint32 = 0

	// SlotObject is the root parameter slot holding the per-object constants (world and color).
	SlotObject uint32 = 1
)

// rootSignature is the implementation of the RootSignature interface.
type rootSignature struct {
	label  string
	params []gpu.RootParameter
	gpu    gpu.RootSignature
}

// RootSignature declares the resource binding layout of the pipeline. Every drawable populates SlotObject;
// the camera populates SlotScene once per frame.
type RootSignature interface {
	// GPU returns the device root signature.
	//
	// Returns:
	//   - gpu.RootSignature: the device object bound on command lists
	GPU() gpu.RootSignature

	// Parameters returns the root parameters in slot order.
	//
	// Returns:
	//   - []gpu.RootParameter: the parameters
	Parameters() []gpu.RootParameter

	// Parameter returns the parameter of one slot, used to create constant buffer views compatible with it.
	//
	// Parameters:
	//   - slot: the root parameter slot
	//
	// Returns:
	//   - gpu.RootParameter: the parameter
	//   - error: an assertion failure if slot is out of range
	Parameter(slot uint32) (gpu.RootParameter, error)

	// Release destroys the device root signature.
	Release()
}

var _ RootSignature = &rootSignature{}

// NewRootSignature creates the root signature. By default it declares two descriptor tables with one constant
// buffer each: SlotScene at b0 visible to the vertex stage, SlotObject at b1 visible to all stages.
//
// Parameters:
//   - device: the device
//   - options: functional options
//
// Returns:
//   - RootSignature: the root signature
//   - error: the device creation error
func NewRootSignature(device gpu.Device, options ...RootSignatureBuilderOption) (RootSignature, error) {
	r := &rootSignature{
		label: "Root Signature",
		params: []gpu.RootParameter{
			{Register: 0, Visibility: gpu.ShaderVisibilityVertex},
			{Register: 1, Visibility: gpu.ShaderVisibilityAll},
		},
	}
	for _, opt := range options {
		opt(r)
	}

	sig, err := device.CreateRootSignature(gpu.RootSignatureDesc{Label: r.label, Parameters: r.params})
	if err != nil {
		return nil, errors.Wrapf(err, "create root signature %q", r.label)
	}
	r.gpu = sig
	return r, nil
}

func (r *rootSignature) GPU() gpu.RootSignature {
	return r.gpu
}

func (r *rootSignature) Parameters() []gpu.RootParameter {
	return r.params
}

func (r *rootSignature) Parameter(slot uint32) (gpu.RootParameter, error) {
	if int(slot) >= len(r.params) {
		return gpu.RootParameter{}, errors.AssertionFailedf("root parameter slot %d out of range [0,%d)", slot, len(r.params))
	}
	return r.params[slot], nil
}

func (r *rootSignature) Release() {
	if r.gpu != nil {
		r.gpu.Release()
		r.gpu = nil
	}
}

// pipelineState is the implementation of the PipelineState interface.
// It holds the device pipeline together with the description it was built from.
type pipelineState struct {
	desc          gpu.PipelineStateDesc
	rootSignature RootSignature
	shader        shader.Shader
	module        gpu.ShaderModule
	gpu           gpu.PipelineState
}

// PipelineState is an immutable bundle of shader, binding layout and fixed-function state.
// Triangle list and triangle strip topologies are both drawable with it.
type PipelineState interface {
	// GPU returns the device pipeline state.
	//
	// Returns:
	//   - gpu.PipelineState: the device object bound on command lists
	GPU() gpu.PipelineState

	// Desc returns the description the pipeline was built from.
	//
	// Returns:
	//   - gpu.PipelineStateDesc: the description
	Desc() gpu.PipelineStateDesc

	// RootSignature returns the root signature the pipeline was built with.
	RootSignature() RootSignature

	// Shader returns the shader the pipeline was built with.
	Shader() shader.Shader

	// Release destroys the device pipeline and its shader module.
	Release()
}

var _ PipelineState = &pipelineState{}

// NewPipelineState creates the pipeline state. The defaults are: POSITION float3 at 0 and COLOR float4 at 12,
// alpha blending (src-alpha, inv-src-alpha for color, one, zero for alpha), no culling, solid fill,
// depth test less with full write into D32_FLOAT, RGBA8 render target.
//
// Parameters:
//   - device: the device
//   - rs: the root signature; every resource group the shader declares must have a slot in it
//   - sh: the compiled shader
//   - options: functional options overriding the defaults
//
// Returns:
//   - PipelineState: the pipeline state
//   - error: an error if the shader does not fit the layout or the device rejects the pipeline
func NewPipelineState(device gpu.Device, rs RootSignature, sh shader.Shader, options ...PipelineBuilderOption) (PipelineState, error) {
	p := &pipelineState{
		rootSignature: rs,
		shader:        sh,
		desc: gpu.PipelineStateDesc{
			Label: "Pipeline State",
			InputLayout: []gpu.InputElement{
				{Semantic: "POSITION", Format: gpu.VertexFormatFloat32x3, Offset: 0},
				{Semantic: "COLOR", Format: gpu.VertexFormatFloat32x4, Offset: 12},
			},
			Blend: gpu.BlendDesc{
				Enable:   true,
				SrcColor: gpu.BlendFactorSrcAlpha,
				DstColor: gpu.BlendFactorInvSrcAlpha,
				ColorOp:  gpu.BlendOpAdd,
				SrcAlpha: gpu.BlendFactorOne,
				DstAlpha: gpu.BlendFactorZero,
				AlphaOp:  gpu.BlendOpAdd,
			},
			Raster: gpu.RasterDesc{
				Cull: gpu.CullModeNone,
				Fill: gpu.FillModeSolid,
			},
			Depth: gpu.DepthDesc{
				Enable:  true,
				Write:   true,
				Compare: gpu.CompareLess,
			},
			RenderTargetFormat: gpu.TextureFormatRGBA8Unorm,
			DepthFormat:        gpu.TextureFormatD32Float,
		},
	}
	for _, opt := range options {
		opt(p)
	}
	if rs == nil || sh == nil {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "pipeline %q needs a root signature and a shader", p.desc.Label)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	module, err := sh.CreateModule(device)
	if err != nil {
		return nil, err
	}
	p.desc.RootSignature = rs.GPU()
	p.desc.Shader = module
	p.desc.VertexEntry = sh.VertexEntry()
	p.desc.PixelEntry = sh.PixelEntry()

	pso, err := device.CreatePipelineState(p.desc)
	if err != nil {
		module.Release()
		return nil, errors.Wrapf(err, "create pipeline state %q", p.desc.Label)
	}
	p.module, p.gpu = module, pso
	return p, nil
}

// validate checks the shader's declared inputs and resource groups against the layout.
func (p *pipelineState) validate() error {
	if layout := p.shader.InputLayout(); layout != nil {
		if len(layout) != len(p.desc.InputLayout) {
			return errors.Newf("pipeline %q: shader reads %d vertex attributes, input layout has %d",
				p.desc.Label, len(layout), len(p.desc.InputLayout))
		}
		for i, e := range layout {
			want := p.desc.InputLayout[i]
			if e.Format != want.Format || e.Offset != want.Offset {
				return errors.Newf("pipeline %q: attribute %d is %s, input layout has %s",
					p.desc.Label, i, describe(e), describe(want))
			}
		}
	}
	params := p.rootSignature.Parameters()
	for _, b := range p.shader.Bindings() {
		if int(b.Group) >= len(params) {
			return errors.Newf("pipeline %q: shader binds %q in group %d but the root signature has %d slots",
				p.desc.Label, b.Name, b.Group, len(params))
		}
	}
	return nil
}

func describe(e gpu.InputElement) string {
	return fmt.Sprintf("%s format %d at offset %d", e.Semantic, e.Format, e.Offset)
}

func (p *pipelineState) GPU() gpu.PipelineState {
	return p.gpu
}

func (p *pipelineState) Desc() gpu.PipelineStateDesc {
	return p.desc
}

func (p *pipelineState) RootSignature() RootSignature {
	return p.rootSignature
}

func (p *pipelineState) Shader() shader.Shader {
	return p.shader
}

func (p *pipelineState) Release() {
	if p.gpu != nil {
		p.gpu.Release()
		p.gpu = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
