package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/swapchain"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClearColor is the colour every back buffer is cleared to at the start of a frame.
var ClearColor = [4]float64{0.2, 0.2, 0.2, 1.0}

// Scene records the draws of one frame. The renderer calls DrawScene after the frame's targets,
// root signature, heaps and pipeline state are bound; the scene binds the scene constants at
// pipeline.SlotScene and each object's constants at pipeline.SlotObject before drawing it.
type Scene interface {
	// DrawScene records the scene into the frame's command list.
	//
	// Parameters:
	//   - list: the recording command list
	//
	// Returns:
	//   - error: a fatal error; the frame is dropped without being submitted
	DrawScene(list command.List) error
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *slog.Logger

	backendType  RendererBackendType
	surface      *wgpu.SurfaceDescriptor
	instance     gpu.Instance
	ownsInstance bool

	// Pre-creation config collected from builder options
	width                uint32
	height               uint32
	bufferCount          int
	presentMode          PresentMode
	cbvHeapSize          int
	shaderPath           string
	fenceTimeout         time.Duration
	minLevel             gpu.FeatureLevel
	creationLevel        gpu.FeatureLevel
	forceFallbackAdapter bool

	device       device.Device
	heaps        descriptor.Container
	cbvHeap      descriptor.Heap
	swapChain    swapchain.SwapChain
	renderTarget swapchain.RenderTarget
	depthBuffer  swapchain.DepthBuffer

	queue      command.Queue
	fence      command.Fence
	allocators []command.Allocator
	list       command.List

	// fenceValues holds the fence value signalled after the last frame recorded into each back buffer
	fenceValues []uint64
	nextFence   uint64

	shader        shader.Shader
	rootSignature pipeline.RootSignature
	pipelineState pipeline.PipelineState

	frames uint64
	closed bool
}

// Renderer owns the device and every per-frame GPU object, and records, submits and presents one frame per
// RenderFrame call. Up to BufferCount frames are in flight; a frame slot is only reused after its fence
// value has completed.
type Renderer interface {
	// RenderFrame records and submits one frame and presents it.
	//
	// Parameters:
	//   - ctx: bounds the wait for the frame slot's previous work
	//   - scene: the scene to draw, may be nil for a cleared frame
	//
	// Returns:
	//   - error: ErrFenceTimeout, ErrDeviceLost, or any fatal error from the scene
	RenderFrame(ctx context.Context, scene Scene) error

	// Resize waits for the GPU to go idle and rebuilds the back buffer views and the depth buffer.
	// A zero width or height is ignored.
	//
	// Parameters:
	//   - ctx: bounds the idle wait
	//   - width: the new client width in pixels
	//   - height: the new client height in pixels
	//
	// Returns:
	//   - error: an error if the wait or the rebuild fails
	Resize(ctx context.Context, width, height uint32) error

	// WaitIdle blocks until every submitted frame has completed.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: ErrFenceTimeout or the context's error
	WaitIdle(ctx context.Context) error

	// Device returns the selected device.
	Device() device.Device

	// CBVHeap returns the shader-visible heap constant buffers allocate their views from.
	CBVHeap() descriptor.Heap

	// RootSignature returns the root signature every draw is recorded against.
	RootSignature() pipeline.RootSignature

	// Size returns the current client size in pixels.
	Size() (uint32, uint32)

	// FrameCount returns the number of frames submitted so far.
	FrameCount() uint64

	// Close waits for all in-flight frames and releases every GPU object in reverse creation order.
	//
	// Parameters:
	//   - ctx: bounds the final wait
	//
	// Returns:
	//   - error: the wait error, if any; resources are released regardless
	Close(ctx context.Context) error
}

var _ Renderer = &renderer{}

// NewRenderer selects a device and builds the swap chain, descriptor heaps, depth buffer, command objects,
// root signature and pipeline state. Anything created before a failure is released again.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Renderer: the ready renderer
//   - error: a typed creation error such as ErrAdapterNotFound, ErrDeviceCreationFailed,
//     ErrShaderCompileFailed or ErrDescriptorExhausted
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		logger:        slog.Default(),
		backendType:   BackendTypeWGPU,
		ownsInstance:  true,
		width:         1280,
		height:        720,
		bufferCount:   2,
		presentMode:   PresentModeVSync,
		cbvHeapSize:   256,
		shaderPath:    "asset/shader.wgsl",
		fenceTimeout:  5 * time.Second,
		minLevel:      gpu.FeatureLevel11_0,
		creationLevel: gpu.FeatureLevel12_0,
		nextFence:     1,
	}
	for _, opt := range options {
		opt(r)
	}
	if err := r.init(); err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) init() error {
	if r.instance == nil {
		instance, err := newInstance(r.backendType, r.surface, r.width, r.height)
		if err != nil {
			return common.MarkError(err, common.ErrNotInitialized, "create %s instance", r.backendType)
		}
		r.instance = instance
	}

	dev, err := device.Select(r.instance,
		device.WithMinimumFeatureLevel(r.minLevel),
		device.WithCreationFeatureLevel(r.creationLevel),
		device.WithForceFallbackAdapter(r.forceFallbackAdapter),
		device.WithLogger(r.logger),
	)
	if err != nil {
		return err
	}
	r.device = dev
	g := dev.GPU()

	r.queue = command.NewQueue(g)
	r.fence = command.NewFence(g, command.WithTimeout(r.fenceTimeout))

	r.swapChain, err = swapchain.NewSwapChain(g,
		swapchain.WithBufferCount(r.bufferCount),
		swapchain.WithSize(r.width, r.height),
		swapchain.WithVSync(r.presentMode == PresentModeVSync),
	)
	if err != nil {
		return err
	}

	r.heaps = descriptor.NewContainer(g, descriptor.WithLogger(r.logger))
	if err := r.heaps.Create(descriptor.HeapTypeRTV, r.bufferCount, false); err != nil {
		return err
	}
	if err := r.heaps.Create(descriptor.HeapTypeDSV, 1, false); err != nil {
		return err
	}
	if err := r.heaps.Create(descriptor.HeapTypeCBVSRVUAV, r.cbvHeapSize, true); err != nil {
		return err
	}
	rtvHeap, _ := r.heaps.Heap(descriptor.HeapTypeRTV)
	dsvHeap, _ := r.heaps.Heap(descriptor.HeapTypeDSV)
	r.cbvHeap, _ = r.heaps.Heap(descriptor.HeapTypeCBVSRVUAV)

	r.renderTarget = swapchain.NewRenderTarget(g)
	if err := r.renderTarget.CreateBackBuffer(r.swapChain, rtvHeap); err != nil {
		return err
	}
	r.depthBuffer = swapchain.NewDepthBuffer(g)
	if err := r.depthBuffer.Create(r.width, r.height, dsvHeap); err != nil {
		return err
	}

	r.list = command.NewList(r.heaps, command.WithListLabel("Main Command List"))
	r.fenceValues = make([]uint64, r.bufferCount)
	for i := range r.bufferCount {
		r.allocators = append(r.allocators, command.NewAllocator(g, fmt.Sprintf("Command Allocator %d", i)))
	}
	r.trackBackBuffers()

	if r.shader == nil {
		r.shader, err = shader.Compile(r.shaderPath)
		if err != nil {
			return err
		}
	}
	r.rootSignature, err = pipeline.NewRootSignature(g)
	if err != nil {
		return err
	}
	r.pipelineState, err = pipeline.NewPipelineState(g, r.rootSignature, r.shader,
		pipeline.WithRenderTargetFormat(r.swapChain.Format()),
	)
	if err != nil {
		return err
	}

	r.logger.Info("renderer ready",
		slog.String("backend", r.backendType.String()),
		slog.String("adapter", dev.Adapter().Name),
		slog.Int("buffers", r.bufferCount),
		slog.Int("width", int(r.width)),
		slog.Int("height", int(r.height)),
	)
	return nil
}

func (r *renderer) trackBackBuffers() {
	for i := range r.renderTarget.Count() {
		if tex, err := r.renderTarget.Texture(i); err == nil {
			r.list.TrackBackBuffer(tex)
		}
	}
}

func (r *renderer) untrackBackBuffers() {
	for i := range r.renderTarget.Count() {
		if tex, err := r.renderTarget.Texture(i); err == nil {
			r.list.Untrack(tex)
		}
	}
}

func (r *renderer) RenderFrame(ctx context.Context, scene Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return common.MarkError(nil, common.ErrNotInitialized, "render frame on closed renderer")
	}

	index := r.swapChain.CurrentBackBufferIndex()
	if v := r.fenceValues[index]; v != 0 {
		if err := r.fence.Wait(ctx, v); err != nil {
			return errors.Wrapf(err, "wait for back buffer %d", index)
		}
	}

	r.heaps.ApplyPendingFree()

	// targets are resolved before the list opens so a failure cannot leave it recording
	backBuffer, err := r.renderTarget.Texture(index)
	if err != nil {
		return err
	}
	rtv, err := r.renderTarget.Handle(index)
	if err != nil {
		return err
	}
	dsv, err := r.depthBuffer.Handle()
	if err != nil {
		return err
	}

	alloc := r.allocators[index]
	if err := alloc.Reset(r.fence.Completed()); err != nil {
		return err
	}
	if err := r.list.Reset(alloc, r.pipelineState.GPU()); err != nil {
		return err
	}

	r.list.ResourceBarrier(backBuffer, gpu.ResourceStatePresent, gpu.ResourceStateRenderTarget)

	r.list.SetRenderTargets(rtv, dsv)
	r.list.ClearRenderTarget(rtv, ClearColor)
	r.list.ClearDepth(dsv, swapchain.ClearDepth)

	r.list.SetRootSignature(r.rootSignature.GPU())
	r.list.SetViewport(gpu.Viewport{Width: float32(r.width), Height: float32(r.height), MaxDepth: 1})
	r.list.SetScissorRect(gpu.Rect{Right: int32(r.width), Bottom: int32(r.height)})
	r.list.SetDescriptorHeaps(r.cbvHeap)
	r.list.SetPipelineState(r.pipelineState.GPU())

	var sceneErr error
	if scene != nil {
		sceneErr = scene.DrawScene(r.list)
	}

	r.list.ResourceBarrier(backBuffer, gpu.ResourceStateRenderTarget, gpu.ResourceStatePresent)

	if err := r.list.Close(); err != nil {
		return errors.Wrap(err, "close frame command list")
	}
	if sceneErr != nil {
		return errors.Wrap(sceneErr, "draw scene")
	}
	if err := r.queue.Execute(r.list); err != nil {
		return err
	}
	if err := r.swapChain.Present(); err != nil {
		return err
	}

	value := r.nextFence
	if err := r.queue.Signal(r.fence, value); err != nil {
		return err
	}
	r.nextFence++
	r.fenceValues[index] = value
	alloc.MarkSubmitted(value)
	r.frames++
	return nil
}

func (r *renderer) Resize(ctx context.Context, width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return common.MarkError(nil, common.ErrNotInitialized, "resize of closed renderer")
	}
	if width == r.width && height == r.height {
		return nil
	}
	if err := r.waitIdle(ctx); err != nil {
		return err
	}

	r.untrackBackBuffers()
	if err := r.swapChain.Resize(width, height); err != nil {
		return errors.Wrapf(err, "resize swap chain to %dx%d", width, height)
	}
	rtvHeap, err := r.heaps.Heap(descriptor.HeapTypeRTV)
	if err != nil {
		return err
	}
	if err := r.renderTarget.CreateBackBuffer(r.swapChain, rtvHeap); err != nil {
		return err
	}
	if err := r.depthBuffer.Recreate(width, height); err != nil {
		return err
	}
	r.trackBackBuffers()
	r.width, r.height = width, height

	r.logger.Debug("renderer resized", slog.Int("width", int(width)), slog.Int("height", int(height)))
	return nil
}

func (r *renderer) WaitIdle(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waitIdle(ctx)
}

// waitIdle waits for the last signalled fence value, which covers every earlier frame.
func (r *renderer) waitIdle(ctx context.Context) error {
	if r.fence == nil || r.nextFence <= 1 {
		return nil
	}
	if err := r.fence.Wait(ctx, r.nextFence-1); err != nil {
		return errors.Wrap(err, "wait for GPU idle")
	}
	return nil
}

func (r *renderer) Device() device.Device {
	return r.device
}

func (r *renderer) CBVHeap() descriptor.Heap {
	return r.cbvHeap
}

func (r *renderer) RootSignature() pipeline.RootSignature {
	return r.rootSignature
}

func (r *renderer) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	err := r.waitIdle(ctx)
	r.release()
	r.closed = true
	return err
}

// release frees whatever init managed to create, newest first.
func (r *renderer) release() {
	if r.pipelineState != nil {
		r.pipelineState.Release()
	}
	if r.rootSignature != nil {
		r.rootSignature.Release()
	}
	if r.list != nil {
		r.list.Release()
	}
	for _, a := range r.allocators {
		a.Release()
	}
	if r.depthBuffer != nil {
		_ = r.depthBuffer.Release()
	}
	if r.renderTarget != nil {
		_ = r.renderTarget.Release()
	}
	if r.heaps != nil {
		r.heaps.Release()
	}
	if r.swapChain != nil {
		r.swapChain.Release()
	}
	if r.device != nil {
		r.device.Release()
	}
	if r.instance != nil && r.ownsInstance {
		r.instance.Release()
	}
}
