package descriptor

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/reclaim"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// HeapType identifies the kind of descriptor a heap holds.
type HeapType int

const (
	// HeapTypeRTV holds render target views.
	HeapTypeRTV HeapType = iota

	// HeapTypeDSV holds depth stencil views.
	HeapTypeDSV

	// HeapTypeCBVSRVUAV holds shader-visible constant buffer views.
	HeapTypeCBVSRVUAV
)

func (t HeapType) String() string {
	switch t {
	case HeapTypeRTV:
		return "RTV"
	case HeapTypeDSV:
		return "DSV"
	case HeapTypeCBVSRVUAV:
		return "CBV_SRV_UAV"
	default:
		return fmt.Sprintf("HeapType(%d)", int(t))
	}
}

// Kind returns the device descriptor kind stored in heaps of this type.
func (t HeapType) Kind() gpu.DescriptorKind {
	switch t {
	case HeapTypeRTV:
		return gpu.DescriptorKindRTV
	case HeapTypeDSV:
		return gpu.DescriptorKindDSV
	default:
		return gpu.DescriptorKindCBV
	}
}

// Handle addresses one slot of a heap: base + index * increment.
type Handle uint64

type slotState uint8

const (
	slotFree slotState = iota
	slotAllocated
	slotPendingFree
)

// heap is the implementation of the Heap interface.
type heap struct {
	heapType      HeapType
	capacity      int
	shaderVisible bool
	increment     uint32

	// cpuBase and gpuBase are the handles of slot 0; gpuBase is zero for heaps that are not shader-visible
	cpuBase Handle
	gpuBase Handle

	// free is a LIFO stack of slot indices
	free        []int
	states      []slotState
	descriptors []gpu.Descriptor

	// pending holds released slots until the next ApplyPendingFree; epoch counts ApplyPendingFree calls
	pending reclaim.DelayQueue[int]
	epoch   uint64
}

// Heap is a fixed-capacity array of descriptor slots of one type. Every slot is free, allocated or
// pending-free. Released slots only return to the free list on the next ApplyPendingFree, which the
// frame loop calls once the GPU has finished with the oldest in-flight frame.
// A Heap is not safe for concurrent use.
type Heap interface {
	// Type returns the descriptor type held by the heap.
	//
	// Returns:
	//   - HeapType: the heap type
	Type() HeapType

	// Capacity returns the number of slots in the heap.
	//
	// Returns:
	//   - int: the slot count fixed at creation
	Capacity() int

	// ShaderVisible reports whether the heap can be bound for shader access.
	//
	// Returns:
	//   - bool: true for shader-visible heaps
	ShaderVisible() bool

	// Increment returns the device-reported stride between consecutive handles.
	//
	// Returns:
	//   - uint32: the handle increment in bytes
	Increment() uint32

	// Allocate moves the most recently freed slot to the allocated state.
	//
	// Returns:
	//   - int: the slot index
	//   - error: ErrDescriptorExhausted when no slot is free
	Allocate() (int, error)

	// Release moves an allocated slot to pending-free. The slot cannot be reallocated before the next ApplyPendingFree.
	//
	// Parameters:
	//   - index: the slot to release
	//
	// Returns:
	//   - error: an assertion failure if the slot is not allocated
	Release(index int) error

	// ApplyPendingFree returns every pending-free slot to the free list and releases the descriptors stored in them.
	// It is a no-op when nothing is pending.
	ApplyPendingFree()

	// Set stores the device descriptor written into an allocated slot.
	//
	// Parameters:
	//   - index: an allocated slot
	//   - d: the descriptor
	//
	// Returns:
	//   - error: an assertion failure if the slot is not allocated
	Set(index int, d gpu.Descriptor) error

	// Descriptor returns the device descriptor stored in a slot.
	//
	// Parameters:
	//   - index: the slot
	//
	// Returns:
	//   - gpu.Descriptor: the stored descriptor
	//   - error: ErrNotInitialized if the slot is not allocated or holds nothing
	Descriptor(index int) (gpu.Descriptor, error)

	// CPUHandle returns the CPU handle of a slot.
	//
	// Parameters:
	//   - index: the slot
	//
	// Returns:
	//   - Handle: base + index * increment
	//   - error: an assertion failure if index is out of range
	CPUHandle(index int) (Handle, error)

	// GPUHandle returns the GPU handle of a slot of a shader-visible heap.
	//
	// Parameters:
	//   - index: the slot
	//
	// Returns:
	//   - Handle: base + index * increment
	//   - error: ErrNotInitialized for heaps that are not shader-visible, or an assertion failure if index is out of range
	GPUHandle(index int) (Handle, error)

	// IndexOf converts a CPU or GPU handle of this heap back to its slot index.
	//
	// Parameters:
	//   - h: the handle
	//
	// Returns:
	//   - int: the slot index
	//   - error: an assertion failure if h does not address a slot of this heap
	IndexOf(h Handle) (int, error)

	// Allocated returns the number of slots currently allocated.
	Allocated() int

	// Pending returns the number of slots waiting for ApplyPendingFree.
	Pending() int

	// Destroy releases every stored descriptor and empties the heap.
	Destroy()
}

var _ Heap = &heap{}

// heapBase spaces the handle ranges of different heap types far apart so a handle from one heap never
// resolves in another.
const heapBase Handle = 1 << 32

// NewHeap creates a descriptor heap with count slots, all free.
//
// Parameters:
//   - device: the device providing the handle increment and per-type limits
//   - heapType: the descriptor type
//   - count: the slot count, zero is allowed
//   - shaderVisible: whether the heap is bound for shader access; only CBV_SRV_UAV heaps may be
//
// Returns:
//   - Heap: the new heap
//   - error: an error if the arguments are invalid for the device
func NewHeap(device gpu.Device, heapType HeapType, count int, shaderVisible bool) (Heap, error) {
	if device == nil {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "create %s heap without a device", heapType)
	}
	if count < 0 {
		return nil, errors.Newf("create %s heap with negative count %d", heapType, count)
	}
	if shaderVisible && heapType != HeapTypeCBVSRVUAV {
		return nil, errors.Newf("%s heaps cannot be shader-visible", heapType)
	}
	if limit := device.MaxDescriptors(heapType.Kind()); count > limit {
		return nil, errors.Newf("create %s heap with %d descriptors exceeds device limit %d", heapType, count, limit)
	}

	h := &heap{
		heapType:      heapType,
		capacity:      count,
		shaderVisible: shaderVisible,
		increment:     device.DescriptorIncrement(heapType.Kind()),
		cpuBase:       heapBase * Handle(heapType+1),
		free:          make([]int, count),
		states:        make([]slotState, count),
		descriptors:   make([]gpu.Descriptor, count),
		pending:       reclaim.NewDelayQueue[int](0),
	}
	if shaderVisible {
		h.gpuBase = h.cpuBase | 1<<48
	}
	for i := range h.free {
		h.free[i] = i
	}
	return h, nil
}

func (h *heap) Type() HeapType {
	return h.heapType
}

func (h *heap) Capacity() int {
	return h.capacity
}

func (h *heap) ShaderVisible() bool {
	return h.shaderVisible
}

func (h *heap) Increment() uint32 {
	return h.increment
}

func (h *heap) Allocate() (int, error) {
	if len(h.free) == 0 {
		return -1, common.MarkError(nil, common.ErrDescriptorExhausted,
			"%s heap exhausted: %d of %d slots in use, %d pending", h.heapType, h.Allocated(), h.capacity, h.pending.Len())
	}
	index := h.free[len(h.free)-1]
	h.free = h.free[:len(h.free)-1]
	h.states[index] = slotAllocated
	return index, nil
}

func (h *heap) Release(index int) error {
	if err := h.checkIndex(index); err != nil {
		return err
	}
	if h.states[index] != slotAllocated {
		return errors.AssertionFailedf("release of %s slot %d that is not allocated", h.heapType, index)
	}
	h.states[index] = slotPendingFree
	h.pending.Push(h.epoch, index)
	return nil
}

func (h *heap) ApplyPendingFree() {
	h.pending.Reclaim(h.epoch, h.free1)
	h.epoch++
}

func (h *heap) free1(index int) {
	if d := h.descriptors[index]; d != nil {
		d.Release()
		h.descriptors[index] = nil
	}
	h.states[index] = slotFree
	h.free = append(h.free, index)
}

func (h *heap) Set(index int, d gpu.Descriptor) error {
	if err := h.checkIndex(index); err != nil {
		return err
	}
	if h.states[index] != slotAllocated {
		return errors.AssertionFailedf("write to %s slot %d that is not allocated", h.heapType, index)
	}
	if d != nil && d.Kind() != h.heapType.Kind() {
		return errors.AssertionFailedf("%s descriptor written into %s heap", d.Kind(), h.heapType)
	}
	if old := h.descriptors[index]; old != nil && old != d {
		old.Release()
	}
	h.descriptors[index] = d
	return nil
}

func (h *heap) Descriptor(index int) (gpu.Descriptor, error) {
	if err := h.checkIndex(index); err != nil {
		return nil, err
	}
	if h.states[index] != slotAllocated || h.descriptors[index] == nil {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "%s slot %d holds no descriptor", h.heapType, index)
	}
	return h.descriptors[index], nil
}

func (h *heap) CPUHandle(index int) (Handle, error) {
	if err := h.checkIndex(index); err != nil {
		return 0, err
	}
	return h.cpuBase + Handle(index)*Handle(h.increment), nil
}

func (h *heap) GPUHandle(index int) (Handle, error) {
	if !h.shaderVisible {
		return 0, common.MarkError(nil, common.ErrNotInitialized, "%s heap is not shader-visible", h.heapType)
	}
	if err := h.checkIndex(index); err != nil {
		return 0, err
	}
	return h.gpuBase + Handle(index)*Handle(h.increment), nil
}

func (h *heap) IndexOf(handle Handle) (int, error) {
	base := h.cpuBase
	if h.shaderVisible && handle >= h.gpuBase {
		base = h.gpuBase
	}
	if handle < base || h.increment == 0 {
		return -1, errors.AssertionFailedf("handle %#x is not in the %s heap", uint64(handle), h.heapType)
	}
	offset := handle - base
	if offset%Handle(h.increment) != 0 {
		return -1, errors.AssertionFailedf("handle %#x is not aligned to the %s increment %d", uint64(handle), h.heapType, h.increment)
	}
	index := int(offset / Handle(h.increment))
	if err := h.checkIndex(index); err != nil {
		return -1, err
	}
	return index, nil
}

func (h *heap) Allocated() int {
	n := 0
	for _, s := range h.states {
		if s == slotAllocated {
			n++
		}
	}
	return n
}

func (h *heap) Pending() int {
	return h.pending.Len()
}

func (h *heap) Destroy() {
	h.pending.Drain(nil)
	for i, d := range h.descriptors {
		if d != nil {
			d.Release()
			h.descriptors[i] = nil
		}
		h.states[i] = slotFree
	}
	h.free = h.free[:0]
	h.capacity = 0
	h.states = nil
	h.descriptors = nil
}

func (h *heap) checkIndex(index int) error {
	if index < 0 || index >= h.capacity {
		return errors.AssertionFailedf("%s slot %d out of range [0,%d)", h.heapType, index, h.capacity)
	}
	return nil
}
