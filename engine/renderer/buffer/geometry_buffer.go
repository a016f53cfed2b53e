package buffer

import (
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// upload creates a buffer and fills it with data through one map, copy, unmap.
func upload(device gpu.Device, label string, usage gpu.BufferUsage, data []byte) (gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, errors.Newf("buffer %q created without data", label)
	}
	buf, err := device.CreateBuffer(gpu.BufferDesc{Label: label, Size: uint64(len(data)), Usage: usage})
	if err != nil {
		return nil, common.MarkError(err, common.ErrResourceMapFailed, "create buffer %q", label)
	}
	mapped, err := buf.Map()
	if err != nil {
		buf.Release()
		return nil, common.MarkError(err, common.ErrResourceMapFailed, "map buffer %q", label)
	}
	copy(mapped, data)
	if err := buf.Unmap(); err != nil {
		buf.Release()
		return nil, common.MarkError(err, common.ErrResourceMapFailed, "unmap buffer %q", label)
	}
	return buf, nil
}

type vertexBuffer struct {
	buffer gpu.Buffer
	view   gpu.VertexBufferView
	count  uint32
}

// VertexBuffer is static vertex data uploaded once at creation.
type VertexBuffer interface {
	// View returns the binding view.
	View() gpu.VertexBufferView

	// Count returns the number of vertices.
	Count() uint32

	// Release frees the buffer.
	Release()
}

var _ VertexBuffer = &vertexBuffer{}

// NewVertexBuffer uploads vertex data.
//
// Parameters:
//   - device: the device
//   - data: the packed vertices
//   - stride: the byte size of one vertex
//   - options: functional options
//
// Returns:
//   - VertexBuffer: the buffer
//   - error: ErrResourceMapFailed if the upload fails
func NewVertexBuffer(device gpu.Device, data []byte, stride uint32, options ...BufferBuilderOption) (VertexBuffer, error) {
	cfg := newBufferConfig("Vertex Buffer", options)
	if stride == 0 || len(data)%int(stride) != 0 {
		return nil, errors.Newf("vertex buffer %q: %d bytes is not a whole number of %d byte vertices", cfg.label, len(data), stride)
	}
	buf, err := upload(device, cfg.label, gpu.BufferUsageVertex, data)
	if err != nil {
		return nil, err
	}
	return &vertexBuffer{
		buffer: buf,
		view:   gpu.VertexBufferView{Buffer: buf, Stride: stride, Size: uint64(len(data))},
		count:  uint32(len(data)) / stride,
	}, nil
}

func (v *vertexBuffer) View() gpu.VertexBufferView {
	return v.view
}

func (v *vertexBuffer) Count() uint32 {
	return v.count
}

func (v *vertexBuffer) Release() {
	if v.buffer != nil {
		v.buffer.Release()
		v.buffer = nil
	}
}

type indexBuffer struct {
	buffer gpu.Buffer
	view   gpu.IndexBufferView
	count  uint32
}

// IndexBuffer is static 16-bit index data uploaded once at creation.
type IndexBuffer interface {
	// View returns the binding view.
	View() gpu.IndexBufferView

	// Count returns the number of indices.
	Count() uint32

	// Release frees the buffer.
	Release()
}

var _ IndexBuffer = &indexBuffer{}

// NewIndexBuffer uploads 16-bit indices.
//
// Parameters:
//   - device: the device
//   - indices: the indices
//   - options: functional options
//
// Returns:
//   - IndexBuffer: the buffer
//   - error: ErrResourceMapFailed if the upload fails
func NewIndexBuffer(device gpu.Device, indices []uint16, options ...BufferBuilderOption) (IndexBuffer, error) {
	cfg := newBufferConfig("Index Buffer", options)
	data := common.SliceToBytes(indices)
	buf, err := upload(device, cfg.label, gpu.BufferUsageIndex, data)
	if err != nil {
		return nil, err
	}
	return &indexBuffer{
		buffer: buf,
		view:   gpu.IndexBufferView{Buffer: buf, Format: gpu.IndexFormatUint16, Size: uint64(len(data))},
		count:  uint32(len(indices)),
	}, nil
}

func (i *indexBuffer) View() gpu.IndexBufferView {
	return i.view
}

func (i *indexBuffer) Count() uint32 {
	return i.count
}

func (i *indexBuffer) Release() {
	if i.buffer != nil {
		i.buffer.Release()
		i.buffer = nil
	}
}
