package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuCommandEncoder translates explicit-API style recording into WebGPU render passes.
// Render targets and clears are staged until the first command that needs a pass; a
// RENDER_TARGET -> PRESENT barrier (or Finish) ends the pass.
type wgpuCommandEncoder struct {
	device  *wgpuDevice
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder

	rtv, dsv   *wgpuDescriptor
	clearColor *wgpu.Color
	clearDepth *float32

	pso      *wgpuPipelineState
	topology PrimitiveTopology
	bound    *wgpu.RenderPipeline
	viewport *Viewport
	scissor  *Rect

	err error
}

type wgpuCommandBuffer struct {
	buffer *wgpu.CommandBuffer
}

var _ CommandEncoder = &wgpuCommandEncoder{}

func (e *wgpuCommandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// ensurePass begins the render pass for the staged targets if none is open.
func (e *wgpuCommandEncoder) ensurePass() bool {
	if e.pass != nil {
		return true
	}
	if e.err != nil {
		return false
	}
	if e.rtv == nil {
		e.fail(errors.AssertionFailedf("render command recorded with no render target bound"))
		return false
	}

	view := e.rtv.view
	if e.rtv.backBuffer != nil {
		acquired, err := e.rtv.backBuffer.chain.acquire()
		if err != nil {
			e.fail(err)
			return false
		}
		view = acquired
	}

	color := wgpu.RenderPassColorAttachment{
		View:    view,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if e.clearColor != nil {
		color.LoadOp = wgpu.LoadOpClear
		color.ClearValue = *e.clearColor
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
	}
	if e.dsv != nil {
		depth := &wgpu.RenderPassDepthStencilAttachment{
			View:         e.dsv.view,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
		if e.clearDepth != nil {
			depth.DepthLoadOp = wgpu.LoadOpClear
			depth.DepthClearValue = *e.clearDepth
		}
		desc.DepthStencilAttachment = depth
	}

	e.pass = e.encoder.BeginRenderPass(desc)
	e.bound = nil
	if e.viewport != nil {
		v := e.viewport
		e.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if e.scissor != nil {
		r := e.scissor
		e.pass.SetScissorRect(uint32(r.Left), uint32(r.Top), uint32(r.Right-r.Left), uint32(r.Bottom-r.Top))
	}
	return true
}

func (e *wgpuCommandEncoder) endPass() {
	if e.pass == nil {
		return
	}
	e.pass.End()
	e.pass = nil
	e.clearColor, e.clearDepth = nil, nil
}

func (e *wgpuCommandEncoder) Barrier(tex Texture, before, after ResourceState) {
	switch {
	case before == ResourceStateRenderTarget && after == ResourceStatePresent:
		// a frame with no draws still has to apply its clears
		if e.ensurePass() {
			e.endPass()
		}
	case after == ResourceStateRenderTarget:
		e.endPass()
	}
}

func (e *wgpuCommandEncoder) SetRenderTargets(rtv, dsv Descriptor) {
	e.endPass()
	e.rtv, _ = rtv.(*wgpuDescriptor)
	e.dsv = nil
	if dsv != nil {
		e.dsv, _ = dsv.(*wgpuDescriptor)
	}
}

func (e *wgpuCommandEncoder) ClearRenderTarget(rtv Descriptor, rgba [4]float64) {
	e.clearColor = &wgpu.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
}

func (e *wgpuCommandEncoder) ClearDepth(dsv Descriptor, depth float32) {
	e.clearDepth = &depth
}

// Bind group layouts travel with the pipeline in WebGPU.
func (e *wgpuCommandEncoder) SetRootSignature(rs RootSignature) {}

func (e *wgpuCommandEncoder) SetViewport(v Viewport) {
	e.viewport = &v
	if e.pass != nil {
		e.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
}

func (e *wgpuCommandEncoder) SetScissorRect(r Rect) {
	e.scissor = &r
	if e.pass != nil {
		e.pass.SetScissorRect(uint32(r.Left), uint32(r.Top), uint32(r.Right-r.Left), uint32(r.Bottom-r.Top))
	}
}

func (e *wgpuCommandEncoder) SetPipelineState(pso PipelineState) {
	e.pso, _ = pso.(*wgpuPipelineState)
}

func (e *wgpuCommandEncoder) SetDescriptorTable(slot uint32, d Descriptor) {
	desc, ok := d.(*wgpuDescriptor)
	if !ok || desc.bindGroup == nil {
		e.fail(errors.AssertionFailedf("descriptor table %d bound to a non-CBV descriptor", slot))
		return
	}
	if e.ensurePass() {
		e.pass.SetBindGroup(slot, desc.bindGroup, nil)
	}
}

func (e *wgpuCommandEncoder) SetPrimitiveTopology(t PrimitiveTopology) {
	e.topology = t
}

func (e *wgpuCommandEncoder) SetVertexBuffer(v VertexBufferView) {
	b, ok := v.Buffer.(*wgpuBuffer)
	if !ok {
		e.fail(errors.AssertionFailedf("foreign vertex buffer %T", v.Buffer))
		return
	}
	if e.ensurePass() {
		e.pass.SetVertexBuffer(0, b.buffer, 0, v.Size)
	}
}

func (e *wgpuCommandEncoder) SetIndexBuffer(v IndexBufferView) {
	b, ok := v.Buffer.(*wgpuBuffer)
	if !ok {
		e.fail(errors.AssertionFailedf("foreign index buffer %T", v.Buffer))
		return
	}
	if e.ensurePass() {
		e.pass.SetIndexBuffer(b.buffer, toWGPUIndexFormat(v.Format), 0, v.Size)
	}
}

func (e *wgpuCommandEncoder) DrawIndexed(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	if e.pso == nil {
		e.fail(errors.AssertionFailedf("draw with no pipeline state bound"))
		return
	}
	if !e.ensurePass() {
		return
	}
	if rp := e.pso.variants[e.topology]; rp != e.bound {
		e.pass.SetPipeline(rp)
		e.bound = rp
	}
	e.pass.DrawIndexed(indexCount, instanceCount, startIndex, baseVertex, startInstance)
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	e.endPass()
	defer func() {
		e.encoder.Release()
		e.encoder = nil
	}()
	if e.err != nil {
		return nil, e.err
	}
	cb, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, errors.Wrap(err, "finish command encoder")
	}
	return &wgpuCommandBuffer{buffer: cb}, nil
}

func (e *wgpuCommandEncoder) Release() {
	e.endPass()
	if e.encoder != nil {
		e.encoder.Release()
		e.encoder = nil
	}
}

func (b *wgpuCommandBuffer) Release() {
	b.buffer.Release()
}
