package swapchain

import (
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// ClearDepth is the value the depth buffer is created for and cleared to every frame.
const ClearDepth float32 = 1.0

type depthBuffer struct {
	device  gpu.Device
	heap    descriptor.Heap
	texture gpu.Texture
	slot    int
	handle  descriptor.Handle
}

// DepthBuffer is the single D32_FLOAT depth texture sized to the window's client area, with its view.
type DepthBuffer interface {
	// Create creates the texture and its depth stencil view in heap.
	//
	// Parameters:
	//   - width: the width in pixels
	//   - height: the height in pixels
	//   - heap: the DSV heap
	//
	// Returns:
	//   - error: the allocation or creation error
	Create(width, height uint32, heap descriptor.Heap) error

	// Recreate replaces the texture with one of the new size, reusing the view's slot. The GPU must be idle.
	//
	// Parameters:
	//   - width: the new width
	//   - height: the new height
	//
	// Returns:
	//   - error: ErrNotInitialized before Create, or the creation error
	Recreate(width, height uint32) error

	// Handle returns the CPU handle of the depth stencil view.
	//
	// Returns:
	//   - descriptor.Handle: the handle
	//   - error: ErrNotInitialized before Create
	Handle() (descriptor.Handle, error)

	// Texture returns the depth texture, nil before Create.
	Texture() gpu.Texture

	// Release frees the texture and returns the slot through its deferred free.
	//
	// Returns:
	//   - error: the slot release error
	Release() error
}

var _ DepthBuffer = &depthBuffer{}

// NewDepthBuffer creates an empty depth buffer for device.
//
// Parameters:
//   - device: the device the texture is created on
//
// Returns:
//   - DepthBuffer: the empty depth buffer
func NewDepthBuffer(device gpu.Device) DepthBuffer {
	return &depthBuffer{device: device, slot: -1}
}

func (d *depthBuffer) Create(width, height uint32, heap descriptor.Heap) error {
	if heap.Type() != descriptor.HeapTypeDSV {
		return errors.AssertionFailedf("depth stencil view written into a %s heap", heap.Type())
	}
	if d.heap != nil {
		return errors.AssertionFailedf("depth buffer created twice")
	}
	index, err := heap.Allocate()
	if err != nil {
		return errors.Wrap(err, "allocate depth stencil view")
	}
	d.heap, d.slot = heap, index
	if err := d.build(width, height); err != nil {
		_ = heap.Release(index)
		d.heap, d.slot = nil, -1
		return err
	}
	return nil
}

func (d *depthBuffer) Recreate(width, height uint32) error {
	if d.heap == nil {
		return common.MarkError(nil, common.ErrNotInitialized, "recreate of a depth buffer that was never created")
	}
	return d.build(width, height)
}

func (d *depthBuffer) build(width, height uint32) error {
	tex, err := d.device.CreateTexture(gpu.TextureDesc{
		Label:      "Depth Buffer",
		Width:      width,
		Height:     height,
		Format:     gpu.TextureFormatD32Float,
		ClearDepth: ClearDepth,
	})
	if err != nil {
		return errors.Wrapf(err, "create %dx%d depth texture", width, height)
	}
	view, err := d.device.CreateDepthStencilView(tex)
	if err != nil {
		tex.Release()
		return errors.Wrap(err, "create depth stencil view")
	}
	if err := d.heap.Set(d.slot, view); err != nil {
		view.Release()
		tex.Release()
		return err
	}
	handle, err := d.heap.CPUHandle(d.slot)
	if err != nil {
		return err
	}
	if d.texture != nil {
		d.texture.Release()
	}
	d.texture, d.handle = tex, handle
	return nil
}

func (d *depthBuffer) Handle() (descriptor.Handle, error) {
	if d.texture == nil {
		return 0, common.MarkError(nil, common.ErrNotInitialized, "depth buffer not created")
	}
	return d.handle, nil
}

func (d *depthBuffer) Texture() gpu.Texture {
	return d.texture
}

func (d *depthBuffer) Release() error {
	if d.heap == nil {
		return nil
	}
	err := d.heap.Release(d.slot)
	if d.texture != nil {
		d.texture.Release()
	}
	d.heap, d.texture, d.slot = nil, nil, -1
	return err
}
