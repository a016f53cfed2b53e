package gpu

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// featureLevelLimits is the minimum set of device limits an adapter must report to pass a feature level probe.
type featureLevelLimits struct {
	maxTextureDimension2D       uint64
	maxBindGroups               uint64
	maxUniformBufferBindingSize uint64
	maxVertexAttributes         uint64
}

var featureLevels = map[FeatureLevel]featureLevelLimits{
	FeatureLevel11_0: {
		maxTextureDimension2D:       8192,
		maxBindGroups:               4,
		maxUniformBufferBindingSize: 16384,
		maxVertexAttributes:         16,
	},
	FeatureLevel12_0: {
		maxTextureDimension2D:       16384,
		maxBindGroups:               4,
		maxUniformBufferBindingSize: 65536,
		maxVertexAttributes:         16,
	},
}

type wgpuInstance struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
}

type wgpuAdapter struct {
	instance *wgpuInstance
	adapter  *wgpu.Adapter
}

type wgpuDevice struct {
	mu       *sync.Mutex
	instance *wgpuInstance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpuQueue
	layouts  map[RootParameter]*wgpu.BindGroupLayout
}

type wgpuQueue struct {
	queue *wgpu.Queue
}

var (
	_ Instance = &wgpuInstance{}
	_ Adapter  = &wgpuAdapter{}
	_ Device   = &wgpuDevice{}
	_ Queue    = &wgpuQueue{}
)

// NewWGPUInstance creates an Instance backed by WebGPU. When surfaceDescriptor is non-nil a window surface
// is created with it; adapters are then probed for compatibility with that surface and the swap chain
// presents to it. The calling goroutine is locked to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the window's surface descriptor, or nil for an off-screen instance
//
// Returns:
//   - Instance: the WebGPU instance
func NewWGPUInstance(surfaceDescriptor *wgpu.SurfaceDescriptor) Instance {
	runtime.LockOSThread()
	i := &wgpuInstance{
		instance: wgpu.CreateInstance(nil),
	}
	if surfaceDescriptor != nil {
		i.surface = i.instance.CreateSurface(surfaceDescriptor)
	}
	return i
}

func (i *wgpuInstance) EnumerateAdapters() []Adapter {
	found := i.instance.EnumerateAdapters(nil)
	adapters := make([]Adapter, 0, len(found))
	for _, a := range found {
		adapters = append(adapters, &wgpuAdapter{instance: i, adapter: a})
	}
	return adapters
}

func (i *wgpuInstance) Release() {
	if i.surface != nil {
		i.surface.Release()
		i.surface = nil
	}
	i.instance.Release()
}

func (a *wgpuAdapter) Info() AdapterInfo {
	info := a.adapter.GetInfo()
	return AdapterInfo{
		Name:     info.Name,
		Vendor:   info.VendorName,
		Backend:  fmt.Sprint(info.BackendType),
		Software: info.AdapterType == wgpu.AdapterTypeCPU,
	}
}

func (a *wgpuAdapter) SupportsFeatureLevel(level FeatureLevel) bool {
	required, ok := featureLevels[level]
	if !ok {
		return false
	}
	limits := a.adapter.GetLimits().Limits
	if uint64(limits.MaxTextureDimension2D) < required.maxTextureDimension2D ||
		uint64(limits.MaxBindGroups) < required.maxBindGroups ||
		uint64(limits.MaxUniformBufferBindingSize) < required.maxUniformBufferBindingSize ||
		uint64(limits.MaxVertexAttributes) < required.maxVertexAttributes {
		return false
	}
	if a.instance.surface != nil {
		caps := a.instance.surface.GetCapabilities(a.adapter)
		if len(caps.Formats) == 0 {
			return false
		}
	}
	return true
}

func (a *wgpuAdapter) CreateDevice(level FeatureLevel, label string) (Device, error) {
	if !a.SupportsFeatureLevel(level) {
		return nil, errors.Newf("adapter does not support feature level %s", level)
	}
	d, err := a.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "request device %q", label)
	}
	return &wgpuDevice{
		mu:       &sync.Mutex{},
		instance: a.instance,
		adapter:  a.adapter,
		device:   d,
		queue:    &wgpuQueue{queue: d.GetQueue()},
		layouts:  make(map[RootParameter]*wgpu.BindGroupLayout),
	}, nil
}

func (d *wgpuDevice) Queue() Queue {
	return d.queue
}

// WebGPU has no descriptor handles; the stride reported is that of the slot record the heap stores.
func (d *wgpuDevice) DescriptorIncrement(kind DescriptorKind) uint32 {
	return uint32(unsafe.Sizeof(wgpuDescriptor{}))
}

func (d *wgpuDevice) MaxDescriptors(kind DescriptorKind) int {
	if kind == DescriptorKindCBV {
		return 1_000_000
	}
	return 1 << 16
}

func (d *wgpuDevice) CreateSwapChain(desc SwapChainDesc) (SwapChain, error) {
	if d.instance.surface == nil {
		return nil, errors.New("instance has no window surface")
	}
	if desc.BufferCount < 2 {
		return nil, errors.Newf("swap chain needs at least 2 buffers, got %d", desc.BufferCount)
	}
	caps := d.instance.surface.GetCapabilities(d.adapter)
	if len(caps.Formats) == 0 {
		return nil, common.MarkError(nil, common.ErrDeviceLost, "surface reports no formats")
	}

	format := caps.Formats[0]
	for _, preferred := range []wgpu.TextureFormat{toWGPUTextureFormat(desc.Format), wgpu.TextureFormatBGRA8Unorm} {
		found := false
		for _, f := range caps.Formats {
			if f == preferred {
				format, found = f, true
				break
			}
		}
		if found {
			break
		}
	}
	ownFormat, ok := fromWGPUTextureFormat(format)
	if !ok {
		return nil, errors.Newf("surface format %v is not supported", format)
	}

	sc := &wgpuSwapChain{
		device: d,
		format: ownFormat,
		modes:  caps.PresentModes,
		config: &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      format,
			Width:       desc.Width,
			Height:      desc.Height,
			PresentMode: wgpu.PresentModeFifo,
			AlphaMode:   caps.AlphaModes[0],
		},
	}
	if !desc.VSync {
		sc.config.PresentMode = sc.presentMode(0)
	}
	for i := range desc.BufferCount {
		sc.buffers = append(sc.buffers, &wgpuBackBuffer{chain: sc, label: fmt.Sprintf("BackBuffer%d", i)})
	}
	d.instance.surface.Configure(d.adapter, d.device, sc.config)
	return sc, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, errors.Wrapf(err, "create command encoder %q", label)
	}
	return &wgpuCommandEncoder{device: d, encoder: encoder}, nil
}

func (d *wgpuDevice) Poll(wait bool) {
	d.device.Poll(wait, nil)
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, layout := range d.layouts {
		layout.Release()
		delete(d.layouts, key)
	}
	d.device.Release()
}

// bindGroupLayout returns the cached single-uniform layout for a root parameter so constant buffer views
// and root signatures built from equal parameters share one layout object.
func (d *wgpuDevice) bindGroupLayout(param RootParameter) (*wgpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if layout, ok := d.layouts[param]; ok {
		return layout, nil
	}
	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: fmt.Sprintf("b%d Layout", param.Register),
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: toWGPUShaderStage(param.Visibility),
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create bind group layout for b%d", param.Register)
	}
	d.layouts[param] = layout
	return layout, nil
}

func (q *wgpuQueue) Submit(buffers ...CommandBuffer) error {
	cbs := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		cb, ok := b.(*wgpuCommandBuffer)
		if !ok {
			return errors.AssertionFailedf("foreign command buffer %T submitted to wgpu queue", b)
		}
		cbs = append(cbs, cb.buffer)
	}
	q.queue.Submit(cbs...)
	return nil
}

func (q *wgpuQueue) OnSubmittedWorkDone(fn func()) {
	q.queue.OnSubmittedWorkDone(func(wgpu.QueueWorkDoneStatus) {
		fn()
	})
}
