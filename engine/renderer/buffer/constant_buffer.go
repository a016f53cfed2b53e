package buffer

import (
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// ConstantBufferAlignment is the size multiple required of constant buffers bound through a view.
const ConstantBufferAlignment = 256

type constantBuffer struct {
	label  string
	heap   descriptor.Heap
	buffer gpu.Buffer
	slot   int
	handle descriptor.Handle
	size   uint64
}

// ConstantBuffer is a CPU-writable, GPU-readable block bound through one slot of a shader-visible heap.
// It is written with map, copy, unmap once per frame.
type ConstantBuffer interface {
	// Map returns the writable region. It stays valid until Unmap.
	//
	// Returns:
	//   - []byte: the mapped bytes, Size() long
	//   - error: ErrNotInitialized after Release, ErrResourceMapFailed if the buffer cannot be mapped
	Map() ([]byte, error)

	// Unmap publishes the mapped region to the GPU.
	//
	// Returns:
	//   - error: ErrResourceMapFailed if the upload fails
	Unmap() error

	// Update maps the buffer, copies data to its start and unmaps it.
	//
	// Parameters:
	//   - data: the bytes to write, at most Size() long
	//
	// Returns:
	//   - error: ErrResourceMapFailed if data does not fit or the buffer cannot be written
	Update(data []byte) error

	// Handle returns the GPU handle of the buffer's view, bound with SetDescriptorTable.
	//
	// Returns:
	//   - descriptor.Handle: the handle
	//   - error: ErrNotInitialized after Release
	Handle() (descriptor.Handle, error)

	// Size returns the aligned size in bytes.
	Size() uint64

	// Release frees the buffer and returns its slot through the heap's deferred free.
	//
	// Returns:
	//   - error: the slot release error
	Release() error
}

var _ ConstantBuffer = &constantBuffer{}

// NewConstantBuffer creates a constant buffer of at least size bytes, rounded up to ConstantBufferAlignment,
// and writes its view into a newly allocated slot of heap.
//
// Parameters:
//   - device: the device
//   - heap: the shader-visible CBV heap
//   - param: the root parameter the view will be bound to
//   - size: the minimum size in bytes
//   - options: functional options
//
// Returns:
//   - ConstantBuffer: the buffer
//   - error: ErrResourceMapFailed if the buffer cannot be created, ErrDescriptorExhausted if the heap is full
func NewConstantBuffer(device gpu.Device, heap descriptor.Heap, param gpu.RootParameter, size uint64, options ...BufferBuilderOption) (ConstantBuffer, error) {
	cfg := newBufferConfig("Constant Buffer", options)
	if heap == nil || !heap.ShaderVisible() {
		return nil, errors.AssertionFailedf("constant buffer %q needs a shader-visible heap", cfg.label)
	}
	aligned := common.AlignUp(max(size, 1), ConstantBufferAlignment)

	buf, err := device.CreateBuffer(gpu.BufferDesc{Label: cfg.label, Size: aligned, Usage: gpu.BufferUsageConstant})
	if err != nil {
		return nil, common.MarkError(err, common.ErrResourceMapFailed, "create constant buffer %q", cfg.label)
	}
	slot, err := heap.Allocate()
	if err != nil {
		buf.Release()
		return nil, errors.Wrapf(err, "allocate view for constant buffer %q", cfg.label)
	}
	cb := &constantBuffer{label: cfg.label, heap: heap, buffer: buf, slot: slot, size: aligned}

	view, err := device.CreateConstantBufferView(buf, param)
	if err == nil {
		err = heap.Set(slot, view)
	}
	if err == nil {
		cb.handle, err = heap.GPUHandle(slot)
	}
	if err != nil {
		_ = cb.Release()
		return nil, common.MarkError(err, common.ErrResourceMapFailed, "create view for constant buffer %q", cfg.label)
	}
	return cb, nil
}

func (c *constantBuffer) Map() ([]byte, error) {
	if c.buffer == nil {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "map of released constant buffer %q", c.label)
	}
	data, err := c.buffer.Map()
	if err != nil {
		return nil, common.MarkError(err, common.ErrResourceMapFailed, "map constant buffer %q", c.label)
	}
	return data, nil
}

func (c *constantBuffer) Unmap() error {
	if c.buffer == nil {
		return common.MarkError(nil, common.ErrNotInitialized, "unmap of released constant buffer %q", c.label)
	}
	if err := c.buffer.Unmap(); err != nil {
		return common.MarkError(err, common.ErrResourceMapFailed, "unmap constant buffer %q", c.label)
	}
	return nil
}

func (c *constantBuffer) Update(data []byte) error {
	if uint64(len(data)) > c.size {
		return common.MarkError(nil, common.ErrResourceMapFailed,
			"%d bytes do not fit constant buffer %q of %d bytes", len(data), c.label, c.size)
	}
	mapped, err := c.Map()
	if err != nil {
		return err
	}
	copy(mapped, data)
	return c.Unmap()
}

func (c *constantBuffer) Handle() (descriptor.Handle, error) {
	if c.buffer == nil {
		return 0, common.MarkError(nil, common.ErrNotInitialized, "handle of released constant buffer %q", c.label)
	}
	return c.handle, nil
}

func (c *constantBuffer) Size() uint64 {
	return c.size
}

func (c *constantBuffer) Release() error {
	if c.buffer == nil {
		return nil
	}
	c.buffer.Release()
	c.buffer = nil
	return c.heap.Release(c.slot)
}
