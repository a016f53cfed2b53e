package swapchain

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) gpu.HeadlessDevice {
	t.Helper()
	adapters := gpu.NewHeadlessInstance().EnumerateAdapters()
	require.NotEmpty(t, adapters)
	d, err := adapters[0].CreateDevice(gpu.FeatureLevel12_0, "test")
	require.NoError(t, err)
	return d.(gpu.HeadlessDevice)
}

func TestSwapChainPresentRotatesBackBuffers(t *testing.T) {
	device := newTestDevice(t)
	sc, err := NewSwapChain(device, WithBufferCount(3), WithSize(320, 200))
	require.NoError(t, err)
	defer sc.Release()

	assert.Equal(t, 3, sc.BufferCount())
	assert.Equal(t, 1, sc.SyncInterval())
	w, h := sc.Size()
	assert.Equal(t, uint32(320), w)
	assert.Equal(t, uint32(200), h)

	for _, want := range []int{0, 1, 2, 0} {
		assert.Equal(t, want, sc.CurrentBackBufferIndex())
		require.NoError(t, sc.Present())
	}

	presents := 0
	for _, c := range device.Timeline() {
		if c.Op == gpu.OpPresent {
			presents++
			assert.Equal(t, uint32(1), c.Count, "vsync presents with sync interval 1")
		}
	}
	assert.Equal(t, 4, presents)
}

func TestSwapChainNeedsTwoBuffers(t *testing.T) {
	_, err := NewSwapChain(newTestDevice(t), WithBufferCount(1))
	assert.Error(t, err)
}

func TestSwapChainVSyncOff(t *testing.T) {
	sc, err := NewSwapChain(newTestDevice(t), WithVSync(false))
	require.NoError(t, err)
	assert.Equal(t, 0, sc.SyncInterval())
}

func TestRenderTargetViewsAdvanceFromHeapBase(t *testing.T) {
	device := newTestDevice(t)
	sc, err := NewSwapChain(device)
	require.NoError(t, err)
	heap, err := descriptor.NewHeap(device, descriptor.HeapTypeRTV, 2, false)
	require.NoError(t, err)

	rt := NewRenderTarget(device)
	_, err = rt.Handle(0)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	require.NoError(t, rt.CreateBackBuffer(sc, heap))
	assert.Equal(t, 2, rt.Count())

	base, err := heap.CPUHandle(0)
	require.NoError(t, err)
	for i := range 2 {
		h, err := rt.Handle(i)
		require.NoError(t, err)
		assert.Equal(t, base+descriptor.Handle(uint32(i)*heap.Increment()), h)

		tex, err := rt.Texture(i)
		require.NoError(t, err)
		want, err := sc.BackBuffer(i)
		require.NoError(t, err)
		assert.Same(t, want, tex)
	}

	_, err = rt.Texture(2)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	require.NoError(t, sc.Resize(640, 480))
	require.NoError(t, rt.CreateBackBuffer(sc, heap))
	assert.Equal(t, 2, heap.Allocated(), "recreate allocated new slots")

	require.NoError(t, rt.Release())
	assert.Equal(t, 2, heap.Pending())
	heap.ApplyPendingFree()
	assert.Equal(t, 0, heap.Allocated())
}

func TestRenderTargetExhaustedHeap(t *testing.T) {
	device := newTestDevice(t)
	sc, err := NewSwapChain(device, WithBufferCount(3))
	require.NoError(t, err)
	heap, err := descriptor.NewHeap(device, descriptor.HeapTypeRTV, 2, false)
	require.NoError(t, err)

	err = NewRenderTarget(device).CreateBackBuffer(sc, heap)
	assert.ErrorIs(t, err, common.ErrDescriptorExhausted)
}

func TestDepthBufferLifecycle(t *testing.T) {
	device := newTestDevice(t)
	heap, err := descriptor.NewHeap(device, descriptor.HeapTypeDSV, 1, false)
	require.NoError(t, err)

	db := NewDepthBuffer(device)
	_, err = db.Handle()
	assert.ErrorIs(t, err, common.ErrNotInitialized)
	assert.ErrorIs(t, db.Recreate(10, 10), common.ErrNotInitialized)

	require.NoError(t, db.Create(1280, 720, heap))
	assert.Equal(t, gpu.TextureFormatD32Float, db.Texture().Format())
	assert.Equal(t, uint32(1280), db.Texture().Width())
	h, err := db.Handle()
	require.NoError(t, err)

	require.NoError(t, db.Recreate(800, 600))
	assert.Equal(t, uint32(800), db.Texture().Width())
	assert.Equal(t, uint32(600), db.Texture().Height())
	again, err := db.Handle()
	require.NoError(t, err)
	assert.Equal(t, h, again, "recreate moved the view")
	assert.Equal(t, 1, heap.Allocated())

	require.NoError(t, db.Release())
	assert.Nil(t, db.Texture())
	assert.Equal(t, 1, heap.Pending())
}

func TestDepthBufferZeroSizeLeavesHeapUntouched(t *testing.T) {
	device := newTestDevice(t)
	heap, err := descriptor.NewHeap(device, descriptor.HeapTypeDSV, 1, false)
	require.NoError(t, err)

	require.Error(t, NewDepthBuffer(device).Create(0, 0, heap))
	assert.Equal(t, 0, heap.Allocated())
}
