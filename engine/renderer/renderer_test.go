package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/swapchain"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shaderPath = "../../asset/shader.wgsl"

func fakeCompiler(string) ([]byte, error) {
	return []byte{0x03, 0x02, 0x23, 0x07}, nil
}

func newTestRenderer(t *testing.T, options ...RendererBuilderOption) (Renderer, gpu.HeadlessDevice) {
	t.Helper()
	sh, err := shader.Compile(shaderPath, shader.WithCompiler(fakeCompiler))
	require.NoError(t, err)

	base := []RendererBuilderOption{
		WithBackend(BackendTypeHeadless),
		WithShader(sh),
		WithSize(640, 480),
		WithCBVHeapSize(8),
	}
	r, err := NewRenderer(append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	hd, ok := r.Device().GPU().(gpu.HeadlessDevice)
	require.True(t, ok)
	return r, hd
}

// drawScene binds one constant buffer and records a single strip draw.
type drawScene struct {
	cb    buffer.ConstantBuffer
	vb    buffer.VertexBuffer
	ib    buffer.IndexBuffer
	fail  error
	calls int
}

func newDrawScene(t *testing.T, r Renderer) *drawScene {
	t.Helper()
	g := r.Device().GPU()
	param, err := r.RootSignature().Parameter(pipeline.SlotObject)
	require.NoError(t, err)
	cb, err := buffer.NewConstantBuffer(g, r.CBVHeap(), param, 80)
	require.NoError(t, err)
	vb, err := buffer.NewVertexBuffer(g, make([]byte, 4*28), 28)
	require.NoError(t, err)
	ib, err := buffer.NewIndexBuffer(g, []uint16{0, 1, 2, 3})
	require.NoError(t, err)
	return &drawScene{cb: cb, vb: vb, ib: ib}
}

func (s *drawScene) DrawScene(list command.List) error {
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	h, err := s.cb.Handle()
	if err != nil {
		return err
	}
	list.SetDescriptorTable(pipeline.SlotObject, h)
	list.SetPrimitiveTopology(gpu.TopologyTriangleStrip)
	list.SetVertexBuffer(s.vb.View())
	list.SetIndexBuffer(s.ib.View())
	list.DrawIndexedInstanced(s.ib.Count(), 1, 0, 0, 0)
	return nil
}

func TestRenderFrameProtocol(t *testing.T) {
	r, hd := newTestRenderer(t)
	scene := newDrawScene(t, r)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, r.RenderFrame(ctx, scene))
	}
	assert.Equal(t, uint64(3), r.FrameCount())
	assert.Equal(t, 3, hd.Submissions())

	var presents []string
	var open string
	draws := 0
	for _, c := range hd.Timeline() {
		switch c.Op {
		case gpu.OpBarrier:
			if c.Before == gpu.ResourceStatePresent {
				require.Empty(t, open, "back buffer opened twice")
				assert.Equal(t, gpu.ResourceStateRenderTarget, c.After)
				open = c.Texture
			} else {
				assert.Equal(t, open, c.Texture)
				assert.Equal(t, gpu.ResourceStatePresent, c.After)
				open = ""
			}
		case gpu.OpClearRenderTarget:
			assert.Equal(t, ClearColor, c.Color)
		case gpu.OpClearDepth:
			assert.Equal(t, float32(1.0), c.Depth)
		case gpu.OpSetViewport:
			assert.Equal(t, float32(640), c.Viewport.Width)
			assert.Equal(t, float32(480), c.Viewport.Height)
		case gpu.OpDrawIndexed:
			require.NotEmpty(t, open, "draw outside a render target barrier")
			assert.Equal(t, uint32(4), c.Count)
			draws++
		case gpu.OpPresent:
			require.Empty(t, open, "present before the back buffer returned to PRESENT")
			assert.Equal(t, uint32(1), c.Count)
			presents = append(presents, c.Texture)
		}
	}
	assert.Equal(t, 3, draws)
	assert.Equal(t, []string{"BackBuffer0", "BackBuffer1", "BackBuffer0"}, presents)
}

func TestRenderFrameWaitsForSlotFence(t *testing.T) {
	instance := gpu.NewHeadlessInstance(gpu.WithCompletionLatency(20 * time.Millisecond))
	r, _ := newTestRenderer(t, WithInstance(instance))

	ctx := context.Background()
	start := time.Now()
	for range 3 {
		require.NoError(t, r.RenderFrame(ctx, nil))
	}
	// the third frame reuses slot 0 and must wait for the first frame's completion
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	require.NoError(t, r.WaitIdle(ctx))
}

func TestRenderFrameUncappedSyncInterval(t *testing.T) {
	r, hd := newTestRenderer(t, WithPresentMode(PresentModeUncapped))
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	timeline := hd.Timeline()
	last := timeline[len(timeline)-1]
	assert.Equal(t, gpu.OpPresent, last.Op)
	assert.Zero(t, last.Count)
}

func TestRenderFrameSceneErrorDropsFrame(t *testing.T) {
	r, hd := newTestRenderer(t)
	scene := newDrawScene(t, r)
	ctx := context.Background()

	scene.fail = errors.New("scene broke")
	err := r.RenderFrame(ctx, scene)
	require.Error(t, err)
	assert.Zero(t, hd.Submissions())
	assert.Zero(t, r.FrameCount())

	scene.fail = nil
	require.NoError(t, r.RenderFrame(ctx, scene))
	assert.Equal(t, 1, hd.Submissions())
}

func TestRenderFrameMissingTargetLeavesListClosed(t *testing.T) {
	r, hd := newTestRenderer(t)
	ctx := context.Background()
	impl, ok := r.(*renderer)
	require.True(t, ok)

	depth := impl.depthBuffer
	impl.depthBuffer = swapchain.NewDepthBuffer(hd)
	err := r.RenderFrame(ctx, nil)
	assert.ErrorIs(t, err, common.ErrNotInitialized)
	assert.Zero(t, hd.Submissions())

	impl.depthBuffer = depth
	require.NoError(t, r.RenderFrame(ctx, nil))
	assert.Equal(t, 1, hd.Submissions())
}

func TestRenderFrameDeviceLost(t *testing.T) {
	r, hd := newTestRenderer(t)
	require.NoError(t, r.RenderFrame(context.Background(), nil))

	hd.LoseDevice()
	err := r.RenderFrame(context.Background(), nil)
	assert.True(t, errors.Is(err, common.ErrDeviceLost))
	assert.True(t, common.IsFatal(err))
}

func TestResize(t *testing.T) {
	r, hd := newTestRenderer(t)
	ctx := context.Background()
	require.NoError(t, r.RenderFrame(ctx, nil))

	require.NoError(t, r.Resize(ctx, 0, 300))
	w, h := r.Size()
	assert.Equal(t, uint32(640), w)
	assert.Equal(t, uint32(480), h)

	require.NoError(t, r.Resize(ctx, 800, 600))
	w, h = r.Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	require.NoError(t, r.RenderFrame(ctx, nil))
	var viewports []float32
	for _, c := range hd.Timeline() {
		if c.Op == gpu.OpSetViewport {
			viewports = append(viewports, c.Viewport.Width)
		}
	}
	assert.Equal(t, []float32{640, 800}, viewports)
}

func TestCloseRejectsFurtherFrames(t *testing.T) {
	r, _ := newTestRenderer(t)
	ctx := context.Background()
	require.NoError(t, r.RenderFrame(ctx, nil))
	require.NoError(t, r.Close(ctx))
	require.NoError(t, r.Close(ctx))

	err := r.RenderFrame(ctx, nil)
	assert.True(t, errors.Is(err, common.ErrNotInitialized))
}

func TestNewRendererFailures(t *testing.T) {
	sh, err := shader.Compile(shaderPath, shader.WithCompiler(fakeCompiler))
	require.NoError(t, err)

	_, err = NewRenderer(WithInstance(gpu.NewHeadlessInstance(gpu.WithHeadlessAdapters())), WithShader(sh))
	assert.True(t, errors.Is(err, common.ErrAdapterNotFound))

	_, err = NewRenderer(WithBackend(BackendTypeHeadless), WithShader(sh), WithBufferCount(1))
	assert.Error(t, err)

	_, err = NewRenderer(WithBackend(BackendTypeHeadless), WithShaderPath("missing.wgsl"))
	assert.True(t, errors.Is(err, common.ErrShaderCompileFailed))

	_, err = NewRenderer(WithBackend(BackendTypeWGPU))
	assert.Error(t, err)
}

func TestParseBackendType(t *testing.T) {
	b, err := ParseBackendType("headless")
	require.NoError(t, err)
	assert.Equal(t, BackendTypeHeadless, b)

	b, err = ParseBackendType("")
	require.NoError(t, err)
	assert.Equal(t, BackendTypeWGPU, b)

	_, err = ParseBackendType("vulkan")
	assert.Error(t, err)
}
