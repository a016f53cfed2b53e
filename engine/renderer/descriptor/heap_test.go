package descriptor

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDescriptor struct {
	kind     gpu.DescriptorKind
	released bool
}

func (d *fakeDescriptor) Kind() gpu.DescriptorKind { return d.kind }
func (d *fakeDescriptor) Release()                 { d.released = true }

func newTestDevice(t *testing.T) gpu.Device {
	t.Helper()
	adapters := gpu.NewHeadlessInstance().EnumerateAdapters()
	require.NotEmpty(t, adapters)
	d, err := adapters[0].CreateDevice(gpu.FeatureLevel12_0, "test")
	require.NoError(t, err)
	return d
}

func TestHeapAllocatesLastSlotFirst(t *testing.T) {
	h, err := NewHeap(newTestDevice(t), HeapTypeCBVSRVUAV, 3, true)
	require.NoError(t, err)

	for _, want := range []int{2, 1, 0} {
		got, err := h.Allocate()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestHeapExhaustion(t *testing.T) {
	const n = 8
	h, err := NewHeap(newTestDevice(t), HeapTypeCBVSRVUAV, n, true)
	require.NoError(t, err)

	seen := map[int]bool{}
	for range n {
		i, err := h.Allocate()
		require.NoError(t, err)
		assert.False(t, seen[i], "slot %d allocated twice", i)
		seen[i] = true
	}
	assert.Equal(t, n, h.Allocated())

	_, err = h.Allocate()
	assert.ErrorIs(t, err, common.ErrDescriptorExhausted)
}

func TestHeapZeroCapacity(t *testing.T) {
	h, err := NewHeap(newTestDevice(t), HeapTypeDSV, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Capacity())

	for range 3 {
		_, err := h.Allocate()
		assert.ErrorIs(t, err, common.ErrDescriptorExhausted)
	}
}

func TestHeapRejectsInvalidArguments(t *testing.T) {
	device := newTestDevice(t)

	_, err := NewHeap(device, HeapTypeRTV, -1, false)
	assert.Error(t, err)

	_, err = NewHeap(device, HeapTypeRTV, 2, true)
	assert.Error(t, err)

	_, err = NewHeap(device, HeapTypeDSV, device.MaxDescriptors(gpu.DescriptorKindDSV)+1, false)
	assert.Error(t, err)

	_, err = NewHeap(nil, HeapTypeRTV, 2, false)
	assert.ErrorIs(t, err, common.ErrNotInitialized)
}

// With two slots the other slot is still free after one release, so exhaustion is only
// observed once it is taken as well.
func TestHeapReleaseIsDeferredUntilApplyPendingFree(t *testing.T) {
	h, err := NewHeap(newTestDevice(t), HeapTypeRTV, 2, false)
	require.NoError(t, err)

	first, err := h.Allocate()
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, first)

	require.NoError(t, h.Release(first))
	assert.Equal(t, 1, h.Pending())

	second, err := h.Allocate()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = h.Allocate()
	assert.ErrorIs(t, err, common.ErrDescriptorExhausted)

	h.ApplyPendingFree()
	assert.Equal(t, 0, h.Pending())

	again, err := h.Allocate()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestHeapRandomSequencesNeverReuseBeforeApply(t *testing.T) {
	const n = 16
	rng := rand.New(rand.NewSource(7))
	h, err := NewHeap(newTestDevice(t), HeapTypeCBVSRVUAV, n, true)
	require.NoError(t, err)

	var live []int
	pending := map[int]bool{}
	for step := range 2000 {
		switch rng.Intn(5) {
		case 0, 1:
			i, err := h.Allocate()
			if err != nil {
				assert.ErrorIs(t, err, common.ErrDescriptorExhausted)
				assert.Equal(t, n, len(live)+len(pending), "step %d", step)
				continue
			}
			assert.False(t, pending[i], "step %d: slot %d reused before ApplyPendingFree", step, i)
			assert.NotContains(t, live, i)
			live = append(live, i)
		case 2, 3:
			if len(live) == 0 {
				continue
			}
			k := rng.Intn(len(live))
			require.NoError(t, h.Release(live[k]))
			pending[live[k]] = true
			live = slices.Delete(live, k, k+1)
		case 4:
			h.ApplyPendingFree()
			clear(pending)
		}
		assert.LessOrEqual(t, h.Allocated(), n)
		assert.Equal(t, len(live), h.Allocated())
	}
}

func TestHeapApplyPendingFreeWithNothingPendingIsNoOp(t *testing.T) {
	h, err := NewHeap(newTestDevice(t), HeapTypeCBVSRVUAV, 4, true)
	require.NoError(t, err)
	_, err = h.Allocate()
	require.NoError(t, err)

	before := slices.Clone(h.(*heap).free)
	h.ApplyPendingFree()
	h.ApplyPendingFree()
	assert.Equal(t, before, h.(*heap).free)
}

func TestHeapReleaseOfUnallocatedSlotIsAssertion(t *testing.T) {
	h, err := NewHeap(newTestDevice(t), HeapTypeRTV, 2, false)
	require.NoError(t, err)

	err = h.Release(0)
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))

	i, err := h.Allocate()
	require.NoError(t, err)
	require.NoError(t, h.Release(i))
	assert.True(t, errors.HasAssertionFailure(h.Release(i)))

	assert.True(t, errors.HasAssertionFailure(h.Release(5)))
}

func TestHeapHandles(t *testing.T) {
	device := newTestDevice(t)
	rtv, err := NewHeap(device, HeapTypeRTV, 4, false)
	require.NoError(t, err)
	cbv, err := NewHeap(device, HeapTypeCBVSRVUAV, 4, true)
	require.NoError(t, err)

	assert.Equal(t, device.DescriptorIncrement(gpu.DescriptorKindRTV), rtv.Increment())

	h0, err := rtv.CPUHandle(0)
	require.NoError(t, err)
	h3, err := rtv.CPUHandle(3)
	require.NoError(t, err)
	assert.Equal(t, Handle(3*rtv.Increment()), h3-h0)

	index, err := rtv.IndexOf(h3)
	require.NoError(t, err)
	assert.Equal(t, 3, index)

	_, err = rtv.GPUHandle(0)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	g2, err := cbv.GPUHandle(2)
	require.NoError(t, err)
	index, err = cbv.IndexOf(g2)
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	_, err = cbv.IndexOf(h3)
	assert.Error(t, err)

	_, err = rtv.CPUHandle(4)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestHeapDescriptorLifecycle(t *testing.T) {
	h, err := NewHeap(newTestDevice(t), HeapTypeRTV, 1, false)
	require.NoError(t, err)

	_, err = h.Descriptor(0)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	i, err := h.Allocate()
	require.NoError(t, err)

	assert.True(t, errors.HasAssertionFailure(h.Set(i, &fakeDescriptor{kind: gpu.DescriptorKindCBV})))

	d := &fakeDescriptor{kind: gpu.DescriptorKindRTV}
	require.NoError(t, h.Set(i, d))
	got, err := h.Descriptor(i)
	require.NoError(t, err)
	assert.Same(t, d, got)

	require.NoError(t, h.Release(i))
	assert.False(t, d.released, "descriptor released before the GPU is done with it")
	_, err = h.Descriptor(i)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	h.ApplyPendingFree()
	assert.True(t, d.released)
}

func TestContainer(t *testing.T) {
	c := NewContainer(newTestDevice(t))

	_, err := c.Heap(HeapTypeRTV)
	assert.ErrorIs(t, err, common.ErrNotInitialized)

	require.NoError(t, c.Create(HeapTypeRTV, 2, false))
	assert.ErrorIs(t, c.Create(HeapTypeRTV, 4, false), common.ErrHeapExists)

	rtv, err := c.Heap(HeapTypeRTV)
	require.NoError(t, err)
	assert.Equal(t, 2, rtv.Capacity(), "duplicate create replaced the first heap")

	require.Error(t, c.Create(HeapTypeDSV, 1, true))
	_, err = c.Heap(HeapTypeDSV)
	assert.ErrorIs(t, err, common.ErrNotInitialized, "failed create left a heap registered")

	require.NoError(t, c.Create(HeapTypeCBVSRVUAV, 4, true))
	cbv, err := c.Heap(HeapTypeCBVSRVUAV)
	require.NoError(t, err)

	r, err := rtv.Allocate()
	require.NoError(t, err)
	b, err := cbv.Allocate()
	require.NoError(t, err)
	require.NoError(t, rtv.Release(r))
	require.NoError(t, cbv.Release(b))

	c.ApplyPendingFree()
	assert.Equal(t, 0, rtv.Pending())
	assert.Equal(t, 0, cbv.Pending())

	c.Release()
	_, err = c.Heap(HeapTypeCBVSRVUAV)
	assert.ErrorIs(t, err, common.ErrNotInitialized)
}
