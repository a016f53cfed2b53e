package swapchain

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

type renderTarget struct {
	device   gpu.Device
	heap     descriptor.Heap
	textures []gpu.Texture
	slots    []int
	handles  []descriptor.Handle
}

// RenderTarget holds one render target view per back buffer. The images stay owned by the swap chain.
type RenderTarget interface {
	// CreateBackBuffer creates a render target view for every back buffer of sc, in index order, into
	// consecutive slots of heap. On resize it is called again and reuses the same slots.
	//
	// Parameters:
	//   - sc: the swap chain
	//   - heap: the RTV heap
	//
	// Returns:
	//   - error: the allocation or view creation error
	CreateBackBuffer(sc SwapChain, heap descriptor.Heap) error

	// Handle returns the CPU handle of the view of back buffer i.
	//
	// Parameters:
	//   - i: the back buffer index
	//
	// Returns:
	//   - descriptor.Handle: the handle
	//   - error: ErrNotInitialized before CreateBackBuffer or for an out of range index
	Handle(i int) (descriptor.Handle, error)

	// Texture returns back buffer i.
	//
	// Parameters:
	//   - i: the back buffer index
	//
	// Returns:
	//   - gpu.Texture: the image
	//   - error: ErrNotInitialized before CreateBackBuffer or for an out of range index
	Texture(i int) (gpu.Texture, error)

	// Count returns the number of views.
	Count() int

	// Release returns every slot to the heap through its deferred free.
	//
	// Returns:
	//   - error: the first release error
	Release() error
}

var _ RenderTarget = &renderTarget{}

// NewRenderTarget creates an empty render target for device.
//
// Parameters:
//   - device: the device views are created on
//
// Returns:
//   - RenderTarget: the empty render target
func NewRenderTarget(device gpu.Device) RenderTarget {
	return &renderTarget{device: device}
}

func (r *renderTarget) CreateBackBuffer(sc SwapChain, heap descriptor.Heap) error {
	if heap.Type() != descriptor.HeapTypeRTV {
		return errors.AssertionFailedf("render target views written into a %s heap", heap.Type())
	}
	if r.heap != nil && r.heap != heap {
		return errors.AssertionFailedf("render target moved to a different heap without release")
	}
	r.heap = heap
	count := sc.BufferCount()

	for len(r.slots) < count {
		index, err := heap.Allocate()
		if err != nil {
			return errors.Wrapf(err, "allocate render target view %d", len(r.slots))
		}
		r.slots = append(r.slots, index)
	}
	// back buffer i takes the i-th lowest slot so views advance from the heap base
	slices.Sort(r.slots)
	r.textures = r.textures[:0]
	r.handles = r.handles[:0]

	for i := range count {
		tex, err := sc.BackBuffer(i)
		if err != nil {
			return errors.Wrapf(err, "get back buffer %d", i)
		}
		view, err := r.device.CreateRenderTargetView(tex)
		if err != nil {
			return errors.Wrapf(err, "create render target view %d", i)
		}
		if err := heap.Set(r.slots[i], view); err != nil {
			view.Release()
			return err
		}
		h, err := heap.CPUHandle(r.slots[i])
		if err != nil {
			return err
		}
		r.textures = append(r.textures, tex)
		r.handles = append(r.handles, h)
	}
	return nil
}

func (r *renderTarget) Handle(i int) (descriptor.Handle, error) {
	if i < 0 || i >= len(r.handles) {
		return 0, common.MarkError(nil, common.ErrNotInitialized, "no render target view %d", i)
	}
	return r.handles[i], nil
}

func (r *renderTarget) Texture(i int) (gpu.Texture, error) {
	if i < 0 || i >= len(r.textures) {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "no back buffer %d", i)
	}
	return r.textures[i], nil
}

func (r *renderTarget) Count() int {
	return len(r.handles)
}

func (r *renderTarget) Release() error {
	var first error
	for _, index := range r.slots {
		if err := r.heap.Release(index); err != nil && first == nil {
			first = err
		}
	}
	r.slots, r.textures, r.handles = nil, nil, nil
	r.heap = nil
	return first
}
