package gpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/cockroachdb/errors"
)

// HeadlessDevice is the Device produced by a headless instance. It executes nothing; it records every
// submitted command and every present so the frame protocol can be inspected.
type HeadlessDevice interface {
	Device

	// Timeline returns every submitted command and present, in the order the GPU would have seen them.
	//
	// Returns:
	//   - []Command: a copy of the recorded timeline
	Timeline() []Command

	// Submissions returns the number of command buffers submitted so far.
	Submissions() int

	// LoseDevice makes every later Submit and Present fail with ErrDeviceLost.
	LoseDevice()
}

type headlessInstance struct {
	adapters []HeadlessAdapterConfig
	latency  time.Duration
	width    uint32
	height   uint32
}

type headlessAdapter struct {
	instance *headlessInstance
	config   HeadlessAdapterConfig
}

type headlessDevice struct {
	mu       *sync.Mutex
	instance *headlessInstance
	label    string
	queue    *headlessQueue
	timeline []Command
	submits  int
	pending  []func()
	lost     bool
}

type headlessQueue struct {
	device *headlessDevice
}

type headlessTexture struct {
	label  string
	width  uint32
	height uint32
	format TextureFormat
}

type headlessBuffer struct {
	mu       *sync.Mutex
	data     []byte
	mapped   bool
	released bool
}

type headlessDescriptor struct {
	kind     DescriptorKind
	texture  Texture
	buffer   Buffer
	param    RootParameter
	released bool
}

type headlessSwapChain struct {
	device   *headlessDevice
	buffers  []*headlessTexture
	index    int
	format   TextureFormat
	released bool
}

type headlessShaderModule struct{ label string }

type headlessRootSignature struct{ params []RootParameter }

type headlessPipelineState struct{ desc PipelineStateDesc }

var (
	_ Instance       = &headlessInstance{}
	_ Adapter        = &headlessAdapter{}
	_ HeadlessDevice = &headlessDevice{}
	_ Queue          = &headlessQueue{}
	_ SwapChain      = &headlessSwapChain{}
	_ Buffer         = &headlessBuffer{}
)

// NewHeadlessInstance creates an Instance whose adapters and devices run entirely on the CPU.
// By default it exposes one hardware adapter supporting FeatureLevel12_0.
//
// Parameters:
//   - options: functional options configuring adapters and completion timing
//
// Returns:
//   - Instance: the headless instance
func NewHeadlessInstance(options ...HeadlessBuilderOption) Instance {
	i := &headlessInstance{
		adapters: []HeadlessAdapterConfig{{
			Name:         "Headless Reference Adapter",
			FeatureLevel: FeatureLevel12_0,
		}},
		width:  1280,
		height: 720,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

func (i *headlessInstance) EnumerateAdapters() []Adapter {
	adapters := make([]Adapter, 0, len(i.adapters))
	for _, cfg := range i.adapters {
		adapters = append(adapters, &headlessAdapter{instance: i, config: cfg})
	}
	return adapters
}

func (i *headlessInstance) Release() {}

func (a *headlessAdapter) Info() AdapterInfo {
	return AdapterInfo{
		Name:     a.config.Name,
		Vendor:   "oxy",
		Backend:  "headless",
		Software: a.config.Software,
	}
}

func (a *headlessAdapter) SupportsFeatureLevel(level FeatureLevel) bool {
	return level <= a.config.FeatureLevel
}

func (a *headlessAdapter) CreateDevice(level FeatureLevel, label string) (Device, error) {
	if a.config.FailDeviceCreation {
		return nil, errors.Newf("headless adapter %q refused device creation", a.config.Name)
	}
	if !a.SupportsFeatureLevel(level) {
		return nil, errors.Newf("headless adapter %q does not support feature level %s", a.config.Name, level)
	}
	d := &headlessDevice{
		mu:       &sync.Mutex{},
		instance: a.instance,
		label:    label,
	}
	d.queue = &headlessQueue{device: d}
	return d, nil
}

func (d *headlessDevice) Queue() Queue {
	return d.queue
}

func (d *headlessDevice) DescriptorIncrement(kind DescriptorKind) uint32 {
	switch kind {
	case DescriptorKindRTV:
		return 32
	case DescriptorKindDSV:
		return 8
	default:
		return 32
	}
}

func (d *headlessDevice) MaxDescriptors(kind DescriptorKind) int {
	if kind == DescriptorKindCBV {
		return 1_000_000
	}
	return 4096
}

func (d *headlessDevice) CreateSwapChain(desc SwapChainDesc) (SwapChain, error) {
	if desc.BufferCount < 2 {
		return nil, errors.Newf("swap chain needs at least 2 buffers, got %d", desc.BufferCount)
	}
	width, height := common.Coalesce(desc.Width, d.instance.width), common.Coalesce(desc.Height, d.instance.height)
	sc := &headlessSwapChain{device: d, format: desc.Format}
	for i := range desc.BufferCount {
		sc.buffers = append(sc.buffers, &headlessTexture{
			label:  fmt.Sprintf("BackBuffer%d", i),
			width:  width,
			height: height,
			format: desc.Format,
		})
	}
	return sc, nil
}

func (d *headlessDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, errors.Newf("texture %q has zero size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	return &headlessTexture{label: desc.Label, width: desc.Width, height: desc.Height, format: desc.Format}, nil
}

func (d *headlessDevice) CreateRenderTargetView(tex Texture) (Descriptor, error) {
	if tex == nil {
		return nil, errors.New("render target view of nil texture")
	}
	return &headlessDescriptor{kind: DescriptorKindRTV, texture: tex}, nil
}

func (d *headlessDevice) CreateDepthStencilView(tex Texture) (Descriptor, error) {
	if tex == nil || tex.Format() != TextureFormatD32Float {
		return nil, errors.New("depth stencil view requires a D32_FLOAT texture")
	}
	return &headlessDescriptor{kind: DescriptorKindDSV, texture: tex}, nil
}

func (d *headlessDevice) CreateBuffer(desc BufferDesc) (Buffer, error) {
	if desc.Size == 0 {
		return nil, errors.Newf("buffer %q has zero size", desc.Label)
	}
	return &headlessBuffer{mu: &sync.Mutex{}, data: make([]byte, desc.Size)}, nil
}

func (d *headlessDevice) CreateConstantBufferView(buf Buffer, param RootParameter) (Descriptor, error) {
	if buf == nil {
		return nil, errors.New("constant buffer view of nil buffer")
	}
	return &headlessDescriptor{kind: DescriptorKindCBV, buffer: buf, param: param}, nil
}

func (d *headlessDevice) CreateShaderModule(label, source string) (ShaderModule, error) {
	if source == "" {
		return nil, errors.Newf("shader module %q has no source", label)
	}
	return &headlessShaderModule{label: label}, nil
}

func (d *headlessDevice) CreateRootSignature(desc RootSignatureDesc) (RootSignature, error) {
	params := make([]RootParameter, len(desc.Parameters))
	copy(params, desc.Parameters)
	return &headlessRootSignature{params: params}, nil
}

func (d *headlessDevice) CreatePipelineState(desc PipelineStateDesc) (PipelineState, error) {
	if desc.RootSignature == nil || desc.Shader == nil {
		return nil, errors.Newf("pipeline state %q needs a root signature and a shader", desc.Label)
	}
	return &headlessPipelineState{desc: desc}, nil
}

func (d *headlessDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	return &headlessCommandEncoder{label: label}, nil
}

func (d *headlessDevice) Poll(wait bool) {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (d *headlessDevice) Release() {}

func (d *headlessDevice) Timeline() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Command, len(d.timeline))
	copy(out, d.timeline)
	return out
}

func (d *headlessDevice) Submissions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submits
}

func (d *headlessDevice) LoseDevice() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lost = true
}

func (q *headlessQueue) Submit(buffers ...CommandBuffer) error {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lost {
		return common.MarkError(nil, common.ErrDeviceLost, "headless device %q lost", d.label)
	}
	for _, b := range buffers {
		cb, ok := b.(*headlessCommandBuffer)
		if !ok {
			return errors.AssertionFailedf("foreign command buffer %T submitted to headless queue", b)
		}
		d.timeline = append(d.timeline, cb.commands...)
		d.submits++
	}
	return nil
}

func (q *headlessQueue) OnSubmittedWorkDone(fn func()) {
	d := q.device
	if d.instance.latency > 0 {
		time.AfterFunc(d.instance.latency, fn)
		return
	}
	d.mu.Lock()
	d.pending = append(d.pending, fn)
	d.mu.Unlock()
}

func (t *headlessTexture) Label() string         { return t.label }
func (t *headlessTexture) Width() uint32         { return t.width }
func (t *headlessTexture) Height() uint32        { return t.height }
func (t *headlessTexture) Format() TextureFormat { return t.format }
func (t *headlessTexture) Release()              {}

func (b *headlessBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *headlessBuffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, errors.New("map of released buffer")
	}
	if b.mapped {
		return nil, errors.New("buffer already mapped")
	}
	b.mapped = true
	return b.data, nil
}

func (b *headlessBuffer) Unmap() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.mapped {
		return errors.New("unmap of buffer that is not mapped")
	}
	b.mapped = false
	return nil
}

func (b *headlessBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
}

func (d *headlessDescriptor) Kind() DescriptorKind { return d.kind }
func (d *headlessDescriptor) Release()             { d.released = true }

func (s *headlessSwapChain) BufferCount() int {
	return len(s.buffers)
}

func (s *headlessSwapChain) CurrentBackBufferIndex() int {
	return s.index
}

func (s *headlessSwapChain) BackBuffer(index int) (Texture, error) {
	if index < 0 || index >= len(s.buffers) {
		return nil, errors.Newf("back buffer index %d out of range [0,%d)", index, len(s.buffers))
	}
	return s.buffers[index], nil
}

func (s *headlessSwapChain) Present(syncInterval int) error {
	d := s.device
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lost {
		return common.MarkError(nil, common.ErrDeviceLost, "headless surface lost on present")
	}
	d.timeline = append(d.timeline, Command{Op: OpPresent, Texture: s.buffers[s.index].label, Count: uint32(syncInterval)})
	s.index = (s.index + 1) % len(s.buffers)
	return nil
}

func (s *headlessSwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.Newf("swap chain resize to zero size %dx%d", width, height)
	}
	for _, b := range s.buffers {
		b.width, b.height = width, height
	}
	s.index = 0
	return nil
}

func (s *headlessSwapChain) Format() TextureFormat {
	return s.format
}

func (s *headlessSwapChain) Release() {
	s.released = true
}

func (m *headlessShaderModule) Release() {}

func (r *headlessRootSignature) Parameters() []RootParameter { return r.params }
func (r *headlessRootSignature) Release()                    {}

func (p *headlessPipelineState) Release() {}
