package gpu

import "fmt"

// FeatureLevel is a capability tier an adapter must reach to be selected or to host a device.
type FeatureLevel int

const (
	// FeatureLevel11_0 is the minimum tier probed during adapter enumeration.
	FeatureLevel11_0 FeatureLevel = iota

	// FeatureLevel12_0 is the tier the logical device is created at.
	FeatureLevel12_0
)

func (l FeatureLevel) String() string {
	switch l {
	case FeatureLevel11_0:
		return "11_0"
	case FeatureLevel12_0:
		return "12_0"
	default:
		return fmt.Sprintf("FeatureLevel(%d)", int(l))
	}
}

// DescriptorKind identifies what a descriptor slot describes.
type DescriptorKind int

const (
	// DescriptorKindRTV describes a texture bound as a render target.
	DescriptorKindRTV DescriptorKind = iota

	// DescriptorKindDSV describes a texture bound as a depth-stencil target.
	DescriptorKindDSV

	// DescriptorKindCBV describes a constant buffer bound to a shader register.
	DescriptorKindCBV
)

func (k DescriptorKind) String() string {
	switch k {
	case DescriptorKindRTV:
		return "RTV"
	case DescriptorKindDSV:
		return "DSV"
	case DescriptorKindCBV:
		return "CBV_SRV_UAV"
	default:
		return fmt.Sprintf("DescriptorKind(%d)", int(k))
	}
}

// ResourceState is the usage state a texture is in between barriers.
type ResourceState int

const (
	// ResourceStatePresent is the state a back buffer must be in when handed to the swap chain.
	ResourceStatePresent ResourceState = iota

	// ResourceStateRenderTarget is the state a texture must be in to be drawn into.
	ResourceStateRenderTarget

	// ResourceStateDepthWrite is the state a depth texture is created in and stays in.
	ResourceStateDepthWrite
)

func (s ResourceState) String() string {
	switch s {
	case ResourceStatePresent:
		return "PRESENT"
	case ResourceStateRenderTarget:
		return "RENDER_TARGET"
	case ResourceStateDepthWrite:
		return "DEPTH_WRITE"
	default:
		return fmt.Sprintf("ResourceState(%d)", int(s))
	}
}

// TextureFormat is the texel format of a texture or render target.
type TextureFormat int

const (
	TextureFormatRGBA8Unorm TextureFormat = iota
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
	TextureFormatD32Float
)

// VertexFormat is the format of one input layout element.
type VertexFormat int

const (
	VertexFormatFloat32x3 VertexFormat = iota
	VertexFormatFloat32x4
)

// Size returns the byte size of one element of the format.
func (f VertexFormat) Size() uint32 {
	switch f {
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	default:
		return 0
	}
}

// PrimitiveTopology selects how indices assemble into triangles.
type PrimitiveTopology int

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
)

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// ShaderVisibility selects the shader stages a root parameter is visible to.
type ShaderVisibility int

const (
	ShaderVisibilityAll ShaderVisibility = iota
	ShaderVisibilityVertex
	ShaderVisibilityPixel
)

// BufferUsage selects how a buffer is bound.
type BufferUsage int

const (
	BufferUsageConstant BufferUsage = iota
	BufferUsageVertex
	BufferUsageIndex
)

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FillMode selects solid or wireframe rasterization.
type FillMode int

const (
	FillModeSolid FillMode = iota
	FillModeWireframe
)

// CompareFunc is the depth comparison used by the depth test.
type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// BlendFactor is a source or destination multiplier in the blend equation.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorInvSrcAlpha
)

// BlendOp combines the weighted source and destination.
type BlendOp int

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
)

// AdapterInfo describes a physical adapter as reported by the instance.
type AdapterInfo struct {
	Name     string
	Vendor   string
	Backend  string
	Software bool
}

// TextureDesc describes a texture created by the device. Only depth textures are created directly;
// back buffers are owned by the swap chain.
type TextureDesc struct {
	Label      string
	Width      uint32
	Height     uint32
	Format     TextureFormat
	ClearDepth float32
}

// BufferDesc describes an upload buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// SwapChainDesc describes the swap chain created for the window surface.
type SwapChainDesc struct {
	Width       uint32
	Height      uint32
	BufferCount int
	Format      TextureFormat
	VSync       bool
}

// RootParameter is one descriptor-table parameter of a root signature: a single constant buffer
// at shader register Register, visible to the given stages.
type RootParameter struct {
	Register   uint32
	Visibility ShaderVisibility
}

// RootSignatureDesc describes the binding layout a pipeline expects.
type RootSignatureDesc struct {
	Label      string
	Parameters []RootParameter
}

// InputElement describes one vertex attribute.
type InputElement struct {
	Semantic string
	Format   VertexFormat
	Offset   uint32
}

// BlendDesc is the blend state of the single render target.
type BlendDesc struct {
	Enable   bool
	SrcColor BlendFactor
	DstColor BlendFactor
	ColorOp  BlendOp
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
	AlphaOp  BlendOp
}

// RasterDesc is the rasterizer state.
type RasterDesc struct {
	Cull CullMode
	Fill FillMode
}

// DepthDesc is the depth test state.
type DepthDesc struct {
	Enable  bool
	Write   bool
	Compare CompareFunc
}

// PipelineStateDesc describes an immutable pipeline state object.
type PipelineStateDesc struct {
	Label              string
	RootSignature      RootSignature
	Shader             ShaderModule
	VertexEntry        string
	PixelEntry         string
	InputLayout        []InputElement
	Blend              BlendDesc
	Raster             RasterDesc
	Depth              DepthDesc
	RenderTargetFormat TextureFormat
	DepthFormat        TextureFormat
}

// Stride returns the vertex stride implied by the input layout.
func (d PipelineStateDesc) Stride() uint32 {
	var stride uint32
	for _, e := range d.InputLayout {
		if end := e.Offset + e.Format.Size(); end > stride {
			stride = end
		}
	}
	return stride
}

// Viewport is the rasterizer viewport in pixels.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// VertexBufferView binds a vertex buffer to the input assembler.
type VertexBufferView struct {
	Buffer Buffer
	Stride uint32
	Size   uint64
}

// IndexBufferView binds an index buffer to the input assembler.
type IndexBufferView struct {
	Buffer Buffer
	Format IndexFormat
	Size   uint64
}
