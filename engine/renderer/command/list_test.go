package command

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	device     gpu.HeadlessDevice
	heaps      descriptor.Container
	backBuffer gpu.Texture
	rtv, dsv   descriptor.Handle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{device: newTestDevice(t)}
	f.heaps = descriptor.NewContainer(f.device)
	require.NoError(t, f.heaps.Create(descriptor.HeapTypeRTV, 2, false))
	require.NoError(t, f.heaps.Create(descriptor.HeapTypeDSV, 1, false))

	sc, err := f.device.CreateSwapChain(gpu.SwapChainDesc{Width: 64, Height: 64, BufferCount: 2, Format: gpu.TextureFormatRGBA8Unorm})
	require.NoError(t, err)
	f.backBuffer, err = sc.BackBuffer(0)
	require.NoError(t, err)

	depth, err := f.device.CreateTexture(gpu.TextureDesc{Label: "Depth", Width: 64, Height: 64, Format: gpu.TextureFormatD32Float})
	require.NoError(t, err)

	f.rtv = f.store(t, descriptor.HeapTypeRTV, func() (gpu.Descriptor, error) { return f.device.CreateRenderTargetView(f.backBuffer) })
	f.dsv = f.store(t, descriptor.HeapTypeDSV, func() (gpu.Descriptor, error) { return f.device.CreateDepthStencilView(depth) })
	return f
}

func (f *fixture) store(t *testing.T, heapType descriptor.HeapType, create func() (gpu.Descriptor, error)) descriptor.Handle {
	t.Helper()
	heap, err := f.heaps.Heap(heapType)
	require.NoError(t, err)
	index, err := heap.Allocate()
	require.NoError(t, err)
	d, err := create()
	require.NoError(t, err)
	require.NoError(t, heap.Set(index, d))
	h, err := heap.CPUHandle(index)
	require.NoError(t, err)
	return h
}

func TestListStateMachine(t *testing.T) {
	f := newFixture(t)
	a := NewAllocator(f.device, "Allocator 0")
	l := NewList(f.heaps)
	assert.Equal(t, ListStateClosed, l.State())

	assert.True(t, errors.HasAssertionFailure(l.Reset(a, nil)), "reset from an allocator that was never reset")

	require.NoError(t, a.Reset(0))
	require.NoError(t, l.Reset(a, nil))
	assert.Equal(t, ListStateRecording, l.State())
	assert.True(t, errors.HasAssertionFailure(l.Reset(a, nil)))

	require.NoError(t, l.Close())
	assert.Equal(t, ListStateClosed, l.State())
	assert.True(t, errors.HasAssertionFailure(l.Close()))

	assert.True(t, errors.HasAssertionFailure(l.Reset(a, nil)), "one allocator reset yielded two recordings")
}

func TestListRecordingWhileClosedIsReported(t *testing.T) {
	f := newFixture(t)
	a := NewAllocator(f.device, "Allocator 0")
	l := NewList(f.heaps)

	l.SetViewport(gpu.Viewport{Width: 1, Height: 1})
	require.NoError(t, a.Reset(0))
	assert.True(t, errors.HasAssertionFailure(l.Reset(a, nil)))
	require.NoError(t, l.Reset(a, nil))
}

func TestListBarrierTracking(t *testing.T) {
	f := newFixture(t)
	a := NewAllocator(f.device, "Allocator 0")
	l := NewList(f.heaps)
	l.TrackBackBuffer(f.backBuffer)

	require.NoError(t, a.Reset(0))
	require.NoError(t, l.Reset(a, nil))
	l.ResourceBarrier(f.backBuffer, gpu.ResourceStatePresent, gpu.ResourceStateRenderTarget)
	s, ok := l.ResourceState(f.backBuffer)
	require.True(t, ok)
	assert.Equal(t, gpu.ResourceStateRenderTarget, s)

	err := l.Close()
	require.Error(t, err, "closed with the back buffer in RENDER_TARGET")
	assert.True(t, errors.HasAssertionFailure(err))

	l.Untrack(f.backBuffer)
	l.TrackBackBuffer(f.backBuffer)
	require.NoError(t, a.Reset(0))
	require.NoError(t, l.Reset(a, nil))
	l.ResourceBarrier(f.backBuffer, gpu.ResourceStateRenderTarget, gpu.ResourceStatePresent)
	assert.True(t, errors.HasAssertionFailure(l.Close()), "barrier from a state the texture is not in")
}

func TestAllocatorResetGatedByFence(t *testing.T) {
	f := newFixture(t)
	a := NewAllocator(f.device, "Allocator 1")
	require.NoError(t, a.Reset(0))

	a.MarkSubmitted(2)
	assert.Equal(t, uint64(2), a.FenceValue())
	assert.True(t, errors.HasAssertionFailure(a.Reset(1)))
	require.NoError(t, a.Reset(2))
	require.NoError(t, a.Reset(7))
}

func TestRecordExecuteSignal(t *testing.T) {
	f := newFixture(t)
	a := NewAllocator(f.device, "Allocator 0")
	l := NewList(f.heaps)
	q := NewQueue(f.device)
	fence := NewFence(f.device)
	l.TrackBackBuffer(f.backBuffer)

	assert.True(t, errors.HasAssertionFailure(q.Execute(l)), "executed a list that never recorded")

	require.NoError(t, a.Reset(fence.Completed()))
	require.NoError(t, l.Reset(a, nil))
	l.ResourceBarrier(f.backBuffer, gpu.ResourceStatePresent, gpu.ResourceStateRenderTarget)
	l.SetRenderTargets(f.rtv, f.dsv)
	l.ClearRenderTarget(f.rtv, [4]float64{0.2, 0.2, 0.2, 1})
	l.ClearDepth(f.dsv, 1)
	l.ResourceBarrier(f.backBuffer, gpu.ResourceStateRenderTarget, gpu.ResourceStatePresent)
	require.NoError(t, l.Close())

	require.NoError(t, q.Execute(l))
	require.NoError(t, q.Signal(fence, 1))
	a.MarkSubmitted(1)
	require.NoError(t, fence.Wait(context.Background(), 1))

	ops := []gpu.CommandOp{}
	for _, c := range f.device.Timeline() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []gpu.CommandOp{
		gpu.OpBarrier, gpu.OpSetRenderTargets, gpu.OpClearRenderTarget, gpu.OpClearDepth, gpu.OpBarrier,
	}, ops)
	assert.Equal(t, 1, f.device.Submissions())

	assert.True(t, errors.HasAssertionFailure(q.Execute(l)), "executed the same recording twice")
}

func TestListDescriptorTableRequiresBoundHeap(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.heaps.Create(descriptor.HeapTypeCBVSRVUAV, 2, true))
	cbv, err := f.heaps.Heap(descriptor.HeapTypeCBVSRVUAV)
	require.NoError(t, err)
	rtv, err := f.heaps.Heap(descriptor.HeapTypeRTV)
	require.NoError(t, err)

	buf, err := f.device.CreateBuffer(gpu.BufferDesc{Label: "Constants", Size: 256})
	require.NoError(t, err)
	index, err := cbv.Allocate()
	require.NoError(t, err)
	view, err := f.device.CreateConstantBufferView(buf, gpu.RootParameter{Register: 1})
	require.NoError(t, err)
	require.NoError(t, cbv.Set(index, view))
	handle, err := cbv.GPUHandle(index)
	require.NoError(t, err)

	a := NewAllocator(f.device, "Allocator 0")
	l := NewList(f.heaps)

	require.NoError(t, a.Reset(0))
	require.NoError(t, l.Reset(a, nil))
	l.SetDescriptorTable(1, handle)
	assert.Error(t, l.Close(), "descriptor table resolved without a bound heap")

	require.NoError(t, a.Reset(0))
	require.NoError(t, l.Reset(a, nil))
	l.SetDescriptorHeaps(rtv)
	assert.True(t, errors.HasAssertionFailure(l.Close()))

	require.NoError(t, a.Reset(0))
	require.NoError(t, l.Reset(a, nil))
	l.SetDescriptorHeaps(cbv)
	l.SetDescriptorTable(1, handle)
	require.NoError(t, l.Close())
}
