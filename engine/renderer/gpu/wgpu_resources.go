package gpu

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuTexture struct {
	label   string
	texture *wgpu.Texture
	width   uint32
	height  uint32
	format  TextureFormat
}

// wgpuBuffer keeps a CPU shadow of the buffer contents. Map hands out the shadow and Unmap uploads it
// through the queue, which gives WebGPU buffers the map/copy/unmap contract of an upload heap.
type wgpuBuffer struct {
	mu       *sync.Mutex
	buffer   *wgpu.Buffer
	queue    *wgpu.Queue
	shadow   []byte
	mapped   bool
	released bool
}

type wgpuDescriptor struct {
	kind       DescriptorKind
	view       *wgpu.TextureView
	backBuffer *wgpuBackBuffer
	bindGroup  *wgpu.BindGroup
}

type wgpuShaderModule struct {
	module *wgpu.ShaderModule
}

type wgpuRootSignature struct {
	params []RootParameter
	layout *wgpu.PipelineLayout
}

// wgpuPipelineState holds one render pipeline per primitive topology because WebGPU bakes topology into
// the pipeline, while the command list selects it per draw.
type wgpuPipelineState struct {
	variants map[PrimitiveTopology]*wgpu.RenderPipeline
}

type wgpuSwapChain struct {
	device      *wgpuDevice
	config      *wgpu.SurfaceConfiguration
	modes       []wgpu.PresentMode
	format      TextureFormat
	buffers     []*wgpuBackBuffer
	index       int
	current     *wgpu.Texture
	currentView *wgpu.TextureView
}

// wgpuBackBuffer stands in for a swap chain image. The surface texture behind it is acquired when the
// first render pass targeting it begins and released at present.
type wgpuBackBuffer struct {
	chain *wgpuSwapChain
	label string
}

var (
	_ Texture       = &wgpuTexture{}
	_ Texture       = &wgpuBackBuffer{}
	_ Buffer        = &wgpuBuffer{}
	_ Descriptor    = &wgpuDescriptor{}
	_ SwapChain     = &wgpuSwapChain{}
	_ RootSignature = &wgpuRootSignature{}
	_ PipelineState = &wgpuPipelineState{}
)

func (d *wgpuDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        toWGPUTextureFormat(desc.Format),
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create texture %q", desc.Label)
	}
	return &wgpuTexture{label: desc.Label, texture: tex, width: desc.Width, height: desc.Height, format: desc.Format}, nil
}

func (d *wgpuDevice) CreateRenderTargetView(tex Texture) (Descriptor, error) {
	switch t := tex.(type) {
	case *wgpuBackBuffer:
		return &wgpuDescriptor{kind: DescriptorKindRTV, backBuffer: t}, nil
	case *wgpuTexture:
		view, err := t.texture.CreateView(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "create render target view of %q", t.label)
		}
		return &wgpuDescriptor{kind: DescriptorKindRTV, view: view}, nil
	default:
		return nil, errors.AssertionFailedf("render target view of foreign texture %T", tex)
	}
}

func (d *wgpuDevice) CreateDepthStencilView(tex Texture) (Descriptor, error) {
	t, ok := tex.(*wgpuTexture)
	if !ok || t.format != TextureFormatD32Float {
		return nil, errors.New("depth stencil view requires a D32_FLOAT texture")
	}
	view, err := t.texture.CreateView(nil)
	if err != nil {
		return nil, errors.Wrapf(err, "create depth stencil view of %q", t.label)
	}
	return &wgpuDescriptor{kind: DescriptorKindDSV, view: view}, nil
}

func (d *wgpuDevice) CreateBuffer(desc BufferDesc) (Buffer, error) {
	var usage wgpu.BufferUsage
	switch desc.Usage {
	case BufferUsageConstant:
		usage = wgpu.BufferUsageUniform
	case BufferUsageVertex:
		usage = wgpu.BufferUsageVertex
	case BufferUsageIndex:
		usage = wgpu.BufferUsageIndex
	}
	// queue writes must be a multiple of 4 bytes
	size := common.AlignUp(desc.Size, 4)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             size,
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create buffer %q", desc.Label)
	}
	return &wgpuBuffer{
		mu:     &sync.Mutex{},
		buffer: buf,
		queue:  d.queue.queue,
		shadow: make([]byte, size),
	}, nil
}

func (d *wgpuDevice) CreateConstantBufferView(buf Buffer, param RootParameter) (Descriptor, error) {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return nil, errors.AssertionFailedf("constant buffer view of foreign buffer %T", buf)
	}
	layout, err := d.bindGroupLayout(param)
	if err != nil {
		return nil, err
	}
	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "CBV",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  b.buffer,
			Offset:  0,
			Size:    b.Size(),
		}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create constant buffer bind group")
	}
	return &wgpuDescriptor{kind: DescriptorKindCBV, bindGroup: bindGroup}, nil
}

func (d *wgpuDevice) CreateShaderModule(label, source string) (ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %q", label)
	}
	return &wgpuShaderModule{module: module}, nil
}

func (d *wgpuDevice) CreateRootSignature(desc RootSignatureDesc) (RootSignature, error) {
	layouts := make([]*wgpu.BindGroupLayout, 0, len(desc.Parameters))
	for _, p := range desc.Parameters {
		layout, err := d.bindGroupLayout(p)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, layout)
	}
	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create pipeline layout %q", desc.Label)
	}
	return &wgpuRootSignature{params: slices.Clone(desc.Parameters), layout: pipelineLayout}, nil
}

func (d *wgpuDevice) CreatePipelineState(desc PipelineStateDesc) (PipelineState, error) {
	rs, ok := desc.RootSignature.(*wgpuRootSignature)
	if !ok {
		return nil, errors.AssertionFailedf("pipeline %q has foreign root signature %T", desc.Label, desc.RootSignature)
	}
	module, ok := desc.Shader.(*wgpuShaderModule)
	if !ok {
		return nil, errors.AssertionFailedf("pipeline %q has foreign shader module %T", desc.Label, desc.Shader)
	}
	if desc.Raster.Fill != FillModeSolid {
		return nil, errors.Newf("pipeline %q: wireframe fill is not available on this backend", desc.Label)
	}

	attributes := make([]wgpu.VertexAttribute, 0, len(desc.InputLayout))
	for i, e := range desc.InputLayout {
		attributes = append(attributes, wgpu.VertexAttribute{
			Format:         toWGPUVertexFormat(e.Format),
			Offset:         uint64(e.Offset),
			ShaderLocation: uint32(i),
		})
	}

	target := wgpu.ColorTargetState{
		Format:    toWGPUTextureFormat(desc.RenderTargetFormat),
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if desc.Blend.Enable {
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: toWGPUBlendFactor(desc.Blend.SrcColor),
				DstFactor: toWGPUBlendFactor(desc.Blend.DstColor),
				Operation: toWGPUBlendOp(desc.Blend.ColorOp),
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: toWGPUBlendFactor(desc.Blend.SrcAlpha),
				DstFactor: toWGPUBlendFactor(desc.Blend.DstAlpha),
				Operation: toWGPUBlendOp(desc.Blend.AlphaOp),
			},
		}
	}

	depthCompare := toWGPUCompare(desc.Depth.Compare)
	if !desc.Depth.Enable {
		depthCompare = wgpu.CompareFunctionAlways
	}

	pso := &wgpuPipelineState{variants: make(map[PrimitiveTopology]*wgpu.RenderPipeline, 2)}
	for _, topology := range []PrimitiveTopology{TopologyTriangleList, TopologyTriangleStrip} {
		primitive := wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCW,
			CullMode:  toWGPUCullMode(desc.Raster.Cull),
		}
		if topology == TopologyTriangleStrip {
			primitive.Topology = wgpu.PrimitiveTopologyTriangleStrip
			primitive.StripIndexFormat = wgpu.IndexFormatUint16
		}
		created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  desc.Label,
			Layout: rs.layout,
			Vertex: wgpu.VertexState{
				Module:     module.module,
				EntryPoint: desc.VertexEntry,
				Buffers: []wgpu.VertexBufferLayout{{
					ArrayStride: uint64(desc.Stride()),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  attributes,
				}},
			},
			Fragment: &wgpu.FragmentState{
				Module:     module.module,
				EntryPoint: desc.PixelEntry,
				Targets:    []wgpu.ColorTargetState{target},
			},
			Primitive: primitive,
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
			DepthStencil: &wgpu.DepthStencilState{
				Format:            toWGPUTextureFormat(desc.DepthFormat),
				DepthWriteEnabled: desc.Depth.Enable && desc.Depth.Write,
				DepthCompare:      depthCompare,
				StencilFront: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
				StencilBack: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
			},
		})
		if err != nil {
			pso.Release()
			return nil, errors.Wrapf(err, "create render pipeline %q", desc.Label)
		}
		pso.variants[topology] = created
	}
	return pso, nil
}

func (t *wgpuTexture) Label() string         { return t.label }
func (t *wgpuTexture) Width() uint32         { return t.width }
func (t *wgpuTexture) Height() uint32        { return t.height }
func (t *wgpuTexture) Format() TextureFormat { return t.format }

func (t *wgpuTexture) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func (b *wgpuBuffer) Size() uint64 {
	return uint64(len(b.shadow))
}

func (b *wgpuBuffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, errors.New("map of released buffer")
	}
	if b.mapped {
		return nil, errors.New("buffer already mapped")
	}
	b.mapped = true
	return b.shadow, nil
}

func (b *wgpuBuffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mapped {
		return errors.New("unmap of buffer that is not mapped")
	}
	b.mapped = false
	if err := b.queue.WriteBuffer(b.buffer, 0, b.shadow); err != nil {
		return errors.Wrap(err, "upload mapped buffer")
	}
	return nil
}

func (b *wgpuBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.released = true
	b.buffer.Release()
}

func (d *wgpuDescriptor) Kind() DescriptorKind {
	return d.kind
}

func (d *wgpuDescriptor) Release() {
	if d.view != nil {
		d.view.Release()
		d.view = nil
	}
	if d.bindGroup != nil {
		d.bindGroup.Release()
		d.bindGroup = nil
	}
}

func (m *wgpuShaderModule) Release() {
	m.module.Release()
}

func (r *wgpuRootSignature) Parameters() []RootParameter {
	return r.params
}

func (r *wgpuRootSignature) Release() {
	r.layout.Release()
}

func (p *wgpuPipelineState) Release() {
	for topology, rp := range p.variants {
		rp.Release()
		delete(p.variants, topology)
	}
}

func (s *wgpuSwapChain) BufferCount() int {
	return len(s.buffers)
}

func (s *wgpuSwapChain) CurrentBackBufferIndex() int {
	return s.index
}

func (s *wgpuSwapChain) BackBuffer(index int) (Texture, error) {
	if index < 0 || index >= len(s.buffers) {
		return nil, errors.Newf("back buffer index %d out of range [0,%d)", index, len(s.buffers))
	}
	return s.buffers[index], nil
}

// acquire returns the view of the current surface texture, acquiring it on first use in a frame.
func (s *wgpuSwapChain) acquire() (*wgpu.TextureView, error) {
	if s.currentView != nil {
		return s.currentView, nil
	}
	tex, err := s.device.instance.surface.GetCurrentTexture()
	if err != nil {
		return nil, common.MarkError(err, common.ErrDeviceLost, "acquire surface texture")
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, errors.Wrap(err, "create surface texture view")
	}
	s.current, s.currentView = tex, view
	return view, nil
}

func (s *wgpuSwapChain) Present(syncInterval int) error {
	if mode := s.presentMode(syncInterval); mode != s.config.PresentMode {
		s.config.PresentMode = mode
		s.device.instance.surface.Configure(s.device.adapter, s.device.device, s.config)
	}
	if s.currentView != nil {
		s.device.instance.surface.Present()
		s.currentView.Release()
		s.current.Release()
		s.currentView, s.current = nil, nil
	}
	s.index = (s.index + 1) % len(s.buffers)
	return nil
}

// presentMode maps a sync interval to a present mode the surface supports, falling back to FIFO.
func (s *wgpuSwapChain) presentMode(syncInterval int) wgpu.PresentMode {
	if syncInterval > 0 {
		return wgpu.PresentModeFifo
	}
	for _, m := range s.modes {
		if m == wgpu.PresentModeImmediate {
			return m
		}
	}
	return wgpu.PresentModeFifo
}

func (s *wgpuSwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.Newf("swap chain resize to zero size %dx%d", width, height)
	}
	if s.currentView != nil {
		s.currentView.Release()
		s.current.Release()
		s.currentView, s.current = nil, nil
	}
	s.config.Width, s.config.Height = width, height
	s.device.instance.surface.Configure(s.device.adapter, s.device.device, s.config)
	s.index = 0
	return nil
}

func (s *wgpuSwapChain) Format() TextureFormat {
	return s.format
}

func (s *wgpuSwapChain) Release() {
	if s.currentView != nil {
		s.currentView.Release()
		s.current.Release()
		s.currentView, s.current = nil, nil
	}
}

func (b *wgpuBackBuffer) Label() string         { return b.label }
func (b *wgpuBackBuffer) Width() uint32         { return b.chain.config.Width }
func (b *wgpuBackBuffer) Height() uint32        { return b.chain.config.Height }
func (b *wgpuBackBuffer) Format() TextureFormat { return b.chain.format }
func (b *wgpuBackBuffer) Release()              {}

func toWGPUTextureFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case TextureFormatD32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func fromWGPUTextureFormat(f wgpu.TextureFormat) (TextureFormat, bool) {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm:
		return TextureFormatRGBA8Unorm, true
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return TextureFormatRGBA8UnormSrgb, true
	case wgpu.TextureFormatBGRA8Unorm:
		return TextureFormatBGRA8Unorm, true
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return TextureFormatBGRA8UnormSrgb, true
	default:
		return 0, false
	}
}

func toWGPUVertexFormat(f VertexFormat) wgpu.VertexFormat {
	if f == VertexFormatFloat32x4 {
		return wgpu.VertexFormatFloat32x4
	}
	return wgpu.VertexFormatFloat32x3
}

func toWGPUShaderStage(v ShaderVisibility) wgpu.ShaderStage {
	switch v {
	case ShaderVisibilityVertex:
		return wgpu.ShaderStageVertex
	case ShaderVisibilityPixel:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	}
}

func toWGPUBlendFactor(f BlendFactor) wgpu.BlendFactor {
	switch f {
	case BlendFactorOne:
		return wgpu.BlendFactorOne
	case BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case BlendFactorInvSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		return wgpu.BlendFactorZero
	}
}

func toWGPUBlendOp(op BlendOp) wgpu.BlendOperation {
	if op == BlendOpSubtract {
		return wgpu.BlendOperationSubtract
	}
	return wgpu.BlendOperationAdd
}

func toWGPUCullMode(c CullMode) wgpu.CullMode {
	switch c {
	case CullModeFront:
		return wgpu.CullModeFront
	case CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func toWGPUCompare(c CompareFunc) wgpu.CompareFunction {
	switch c {
	case CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case CompareAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionLess
	}
}

func toWGPUIndexFormat(f IndexFormat) wgpu.IndexFormat {
	if f == IndexFormatUint32 {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUint16
}
