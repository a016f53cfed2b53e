package command

import (
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// ListState is the recording state of a command list.
type ListState int

const (
	// ListStateClosed is the initial state and the state after Close; a closed list can be executed.
	ListStateClosed ListState = iota

	// ListStateRecording is the state after Reset; commands may be recorded.
	ListStateRecording
)

func (s ListState) String() string {
	if s == ListStateRecording {
		return "recording"
	}
	return "closed"
}

type list struct {
	label   string
	heaps   descriptor.Container
	state   ListState
	encoder gpu.CommandEncoder

	// finished is the command buffer produced by the last Close, consumed by Queue.Execute
	finished gpu.CommandBuffer

	// states tracks every texture that has been through a barrier; backBuffers must end each recording in PRESENT
	states      map[gpu.Texture]gpu.ResourceState
	backBuffers map[gpu.Texture]bool

	bound []descriptor.Heap
	err   error
}

// List records GPU commands against the encoder of an Allocator. It is Closed initially and after Close,
// and Recording after Reset. Recording methods do not return errors; the first misuse is kept and
// returned by Close.
type List interface {
	// State returns the recording state.
	State() ListState

	// Reset starts a recording from a freshly reset allocator.
	//
	// Parameters:
	//   - a: the frame slot's allocator, reset since its last use
	//   - pso: an initial pipeline state, may be nil
	//
	// Returns:
	//   - error: an assertion failure if the list is recording or the allocator was not reset
	Reset(a Allocator, pso gpu.PipelineState) error

	// Close ends the recording.
	//
	// Returns:
	//   - error: the first recording error, or an assertion failure if a back buffer is outside PRESENT
	Close() error

	// TrackBackBuffer registers a swap chain image in the PRESENT state.
	//
	// Parameters:
	//   - tex: the back buffer
	TrackBackBuffer(tex gpu.Texture)

	// Untrack forgets a texture, used when the swap chain is resized.
	//
	// Parameters:
	//   - tex: the texture
	Untrack(tex gpu.Texture)

	// ResourceState returns the tracked state of a texture.
	//
	// Parameters:
	//   - tex: the texture
	//
	// Returns:
	//   - gpu.ResourceState: the tracked state
	//   - bool: false if the texture is not tracked
	ResourceState(tex gpu.Texture) (gpu.ResourceState, bool)

	// ResourceBarrier transitions a texture between states. before must match the tracked state.
	ResourceBarrier(tex gpu.Texture, before, after gpu.ResourceState)

	// SetRenderTargets binds the render target and depth stencil views addressed by CPU handles.
	SetRenderTargets(rtv, dsv descriptor.Handle)

	// ClearRenderTarget clears the render target view to rgba.
	ClearRenderTarget(rtv descriptor.Handle, rgba [4]float64)

	// ClearDepth clears the depth stencil view to depth.
	ClearDepth(dsv descriptor.Handle, depth float32)

	SetRootSignature(rs gpu.RootSignature)
	SetViewport(v gpu.Viewport)
	SetScissorRect(r gpu.Rect)

	// SetDescriptorHeaps sets the shader-visible heaps SetDescriptorTable resolves GPU handles against.
	SetDescriptorHeaps(heaps ...descriptor.Heap)

	SetPipelineState(pso gpu.PipelineState)

	// SetDescriptorTable binds the descriptor at a GPU handle of a bound heap to a root parameter slot.
	SetDescriptorTable(slot uint32, handle descriptor.Handle)

	SetPrimitiveTopology(t gpu.PrimitiveTopology)
	SetVertexBuffer(v gpu.VertexBufferView)
	SetIndexBuffer(v gpu.IndexBufferView)
	DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)

	// Release frees an unsubmitted command buffer.
	Release()

	takeFinished() (gpu.CommandBuffer, error)
}

var _ List = &list{}

// NewList creates a closed command list. heaps resolves the CPU handles passed to render target commands.
//
// Parameters:
//   - heaps: the descriptor container holding the RTV and DSV heaps
//   - options: functional options
//
// Returns:
//   - List: the closed list
func NewList(heaps descriptor.Container, options ...ListBuilderOption) List {
	l := &list{
		label:       "Command List",
		heaps:       heaps,
		states:      make(map[gpu.Texture]gpu.ResourceState),
		backBuffers: make(map[gpu.Texture]bool),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *list) State() ListState {
	return l.state
}

func (l *list) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

// recording reports whether commands may be recorded, noting the misuse otherwise.
func (l *list) recording(op string) bool {
	if l.state != ListStateRecording {
		l.fail(errors.AssertionFailedf("%s recorded on %s list %q", op, l.state, l.label))
		return false
	}
	return true
}

func (l *list) Reset(a Allocator, pso gpu.PipelineState) error {
	if l.state == ListStateRecording {
		return errors.AssertionFailedf("reset of list %q while recording", l.label)
	}
	if err := l.err; err != nil {
		l.err = nil
		return err
	}
	encoder, err := a.take()
	if err != nil {
		return err
	}
	if l.finished != nil {
		l.finished.Release()
		l.finished = nil
	}
	l.encoder = encoder
	l.bound = nil
	l.state = ListStateRecording
	if pso != nil {
		l.encoder.SetPipelineState(pso)
	}
	return nil
}

func (l *list) Close() error {
	if l.state != ListStateRecording {
		return errors.AssertionFailedf("close of list %q that is not recording", l.label)
	}
	l.state = ListStateClosed
	encoder := l.encoder
	l.encoder = nil

	for tex := range l.backBuffers {
		if s := l.states[tex]; s != gpu.ResourceStatePresent {
			l.fail(errors.AssertionFailedf("back buffer %q left in %s at close", tex.Label(), s))
		}
	}
	if err := l.err; err != nil {
		l.err = nil
		return err
	}

	cb, err := encoder.Finish()
	if err != nil {
		return errors.Wrapf(err, "close list %q", l.label)
	}
	l.finished = cb
	return nil
}

func (l *list) TrackBackBuffer(tex gpu.Texture) {
	l.states[tex] = gpu.ResourceStatePresent
	l.backBuffers[tex] = true
}

func (l *list) Untrack(tex gpu.Texture) {
	delete(l.states, tex)
	delete(l.backBuffers, tex)
}

func (l *list) ResourceState(tex gpu.Texture) (gpu.ResourceState, bool) {
	s, ok := l.states[tex]
	return s, ok
}

func (l *list) ResourceBarrier(tex gpu.Texture, before, after gpu.ResourceState) {
	if !l.recording("ResourceBarrier") {
		return
	}
	if tex == nil {
		l.fail(errors.AssertionFailedf("barrier on nil texture"))
		return
	}
	if tracked, ok := l.states[tex]; ok && tracked != before {
		l.fail(errors.AssertionFailedf("barrier on %q from %s but it is in %s", tex.Label(), before, tracked))
		return
	}
	l.states[tex] = after
	l.encoder.Barrier(tex, before, after)
}

// resolve looks up the device descriptor behind a handle of the given heap type.
func (l *list) resolve(heapType descriptor.HeapType, h descriptor.Handle) (gpu.Descriptor, bool) {
	heap, err := l.heaps.Heap(heapType)
	if err != nil {
		l.fail(err)
		return nil, false
	}
	index, err := heap.IndexOf(h)
	if err != nil {
		l.fail(err)
		return nil, false
	}
	d, err := heap.Descriptor(index)
	if err != nil {
		l.fail(err)
		return nil, false
	}
	return d, true
}

func (l *list) SetRenderTargets(rtv, dsv descriptor.Handle) {
	if !l.recording("SetRenderTargets") {
		return
	}
	r, ok := l.resolve(descriptor.HeapTypeRTV, rtv)
	if !ok {
		return
	}
	d, ok := l.resolve(descriptor.HeapTypeDSV, dsv)
	if !ok {
		return
	}
	l.encoder.SetRenderTargets(r, d)
}

func (l *list) ClearRenderTarget(rtv descriptor.Handle, rgba [4]float64) {
	if !l.recording("ClearRenderTarget") {
		return
	}
	if r, ok := l.resolve(descriptor.HeapTypeRTV, rtv); ok {
		l.encoder.ClearRenderTarget(r, rgba)
	}
}

func (l *list) ClearDepth(dsv descriptor.Handle, depth float32) {
	if !l.recording("ClearDepth") {
		return
	}
	if d, ok := l.resolve(descriptor.HeapTypeDSV, dsv); ok {
		l.encoder.ClearDepth(d, depth)
	}
}

func (l *list) SetRootSignature(rs gpu.RootSignature) {
	if l.recording("SetRootSignature") {
		l.encoder.SetRootSignature(rs)
	}
}

func (l *list) SetViewport(v gpu.Viewport) {
	if l.recording("SetViewport") {
		l.encoder.SetViewport(v)
	}
}

func (l *list) SetScissorRect(r gpu.Rect) {
	if l.recording("SetScissorRect") {
		l.encoder.SetScissorRect(r)
	}
}

func (l *list) SetDescriptorHeaps(heaps ...descriptor.Heap) {
	if !l.recording("SetDescriptorHeaps") {
		return
	}
	for _, h := range heaps {
		if !h.ShaderVisible() {
			l.fail(errors.AssertionFailedf("%s heap bound for shader access is not shader-visible", h.Type()))
			return
		}
	}
	l.bound = heaps
}

func (l *list) SetPipelineState(pso gpu.PipelineState) {
	if l.recording("SetPipelineState") {
		l.encoder.SetPipelineState(pso)
	}
}

func (l *list) SetDescriptorTable(slot uint32, handle descriptor.Handle) {
	if !l.recording("SetDescriptorTable") {
		return
	}
	for _, h := range l.bound {
		index, err := h.IndexOf(handle)
		if err != nil {
			continue
		}
		d, err := h.Descriptor(index)
		if err != nil {
			l.fail(err)
			return
		}
		l.encoder.SetDescriptorTable(slot, d)
		return
	}
	l.fail(common.MarkError(nil, common.ErrNotInitialized, "descriptor table %d handle %#x is not in a bound heap", slot, uint64(handle)))
}

func (l *list) SetPrimitiveTopology(t gpu.PrimitiveTopology) {
	if l.recording("SetPrimitiveTopology") {
		l.encoder.SetPrimitiveTopology(t)
	}
}

func (l *list) SetVertexBuffer(v gpu.VertexBufferView) {
	if l.recording("SetVertexBuffer") {
		l.encoder.SetVertexBuffer(v)
	}
}

func (l *list) SetIndexBuffer(v gpu.IndexBufferView) {
	if l.recording("SetIndexBuffer") {
		l.encoder.SetIndexBuffer(v)
	}
}

func (l *list) DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	if l.recording("DrawIndexedInstanced") {
		l.encoder.DrawIndexed(indexCount, instanceCount, startIndex, baseVertex, startInstance)
	}
}

func (l *list) Release() {
	if l.finished != nil {
		l.finished.Release()
		l.finished = nil
	}
	l.encoder = nil
	l.state = ListStateClosed
}

func (l *list) takeFinished() (gpu.CommandBuffer, error) {
	if l.state != ListStateClosed || l.finished == nil {
		return nil, errors.AssertionFailedf("execute of list %q that was not closed after recording", l.label)
	}
	cb := l.finished
	l.finished = nil
	return cb, nil
}
