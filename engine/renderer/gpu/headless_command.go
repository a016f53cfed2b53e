package gpu

import "github.com/cockroachdb/errors"

// CommandOp identifies a command recorded by the headless backend.
type CommandOp int

const (
	OpBarrier CommandOp = iota
	OpSetRenderTargets
	OpClearRenderTarget
	OpClearDepth
	OpSetRootSignature
	OpSetViewport
	OpSetScissorRect
	OpSetPipelineState
	OpSetDescriptorTable
	OpSetPrimitiveTopology
	OpSetVertexBuffer
	OpSetIndexBuffer
	OpDrawIndexed
	OpPresent
)

// Command is one recorded entry of a headless timeline. Only the fields relevant to Op are set.
type Command struct {
	Op         CommandOp
	Texture    string
	Before     ResourceState
	After      ResourceState
	Slot       uint32
	Descriptor Descriptor
	Count      uint32
	Topology   PrimitiveTopology
	Color      [4]float64
	Depth      float32
	Viewport   Viewport
	Rect       Rect
}

type headlessCommandEncoder struct {
	label    string
	commands []Command
	finished bool
}

type headlessCommandBuffer struct {
	commands []Command
}

var _ CommandEncoder = &headlessCommandEncoder{}

func (e *headlessCommandEncoder) record(c Command) {
	e.commands = append(e.commands, c)
}

func (e *headlessCommandEncoder) Barrier(tex Texture, before, after ResourceState) {
	e.record(Command{Op: OpBarrier, Texture: tex.Label(), Before: before, After: after})
}

func (e *headlessCommandEncoder) SetRenderTargets(rtv, dsv Descriptor) {
	c := Command{Op: OpSetRenderTargets, Descriptor: rtv}
	if d, ok := rtv.(*headlessDescriptor); ok && d.texture != nil {
		c.Texture = d.texture.Label()
	}
	e.record(c)
}

func (e *headlessCommandEncoder) ClearRenderTarget(rtv Descriptor, rgba [4]float64) {
	e.record(Command{Op: OpClearRenderTarget, Descriptor: rtv, Color: rgba})
}

func (e *headlessCommandEncoder) ClearDepth(dsv Descriptor, depth float32) {
	e.record(Command{Op: OpClearDepth, Descriptor: dsv, Depth: depth})
}

func (e *headlessCommandEncoder) SetRootSignature(rs RootSignature) {
	e.record(Command{Op: OpSetRootSignature})
}

func (e *headlessCommandEncoder) SetViewport(v Viewport) {
	e.record(Command{Op: OpSetViewport, Viewport: v})
}

func (e *headlessCommandEncoder) SetScissorRect(r Rect) {
	e.record(Command{Op: OpSetScissorRect, Rect: r})
}

func (e *headlessCommandEncoder) SetPipelineState(pso PipelineState) {
	e.record(Command{Op: OpSetPipelineState})
}

func (e *headlessCommandEncoder) SetDescriptorTable(slot uint32, d Descriptor) {
	e.record(Command{Op: OpSetDescriptorTable, Slot: slot, Descriptor: d})
}

func (e *headlessCommandEncoder) SetPrimitiveTopology(t PrimitiveTopology) {
	e.record(Command{Op: OpSetPrimitiveTopology, Topology: t})
}

func (e *headlessCommandEncoder) SetVertexBuffer(v VertexBufferView) {
	e.record(Command{Op: OpSetVertexBuffer, Count: uint32(v.Size)})
}

func (e *headlessCommandEncoder) SetIndexBuffer(v IndexBufferView) {
	e.record(Command{Op: OpSetIndexBuffer, Count: uint32(v.Size)})
}

func (e *headlessCommandEncoder) DrawIndexed(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	e.record(Command{Op: OpDrawIndexed, Count: indexCount})
}

func (e *headlessCommandEncoder) Finish() (CommandBuffer, error) {
	if e.finished {
		return nil, errors.Newf("encoder %q already finished", e.label)
	}
	e.finished = true
	return &headlessCommandBuffer{commands: e.commands}, nil
}

func (e *headlessCommandEncoder) Release() {
	e.commands = nil
}

func (b *headlessCommandBuffer) Release() {}
