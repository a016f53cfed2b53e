package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/game_object"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lite/engine/window"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCompiler(source string) ([]byte, error) {
	return []byte{0x03, 0x02, 0x23, 0x07}, nil
}

func testConfig(frames int) Config {
	cfg := DefaultConfig()
	cfg.Renderer.ShaderPath = "../asset/shader.wgsl"
	cfg.Window.Width, cfg.Window.Height = 640, 480
	cfg.Window.FrameLimit = frames
	cfg.Headless()
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, options ...EngineBuilderOption) Engine {
	t.Helper()
	base := []EngineBuilderOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithShaderOptions(shader.WithCompiler(fakeCompiler)),
	}
	e, err := NewEngine(context.Background(), cfg, append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func headlessDevice(t *testing.T, e Engine) gpu.HeadlessDevice {
	t.Helper()
	d, ok := e.Renderer().Device().GPU().(gpu.HeadlessDevice)
	require.True(t, ok)
	return d
}

func countOps(timeline []gpu.Command, op gpu.CommandOp) int {
	n := 0
	for _, c := range timeline {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestRunHeadlessFrameBudget(t *testing.T) {
	e := newTestEngine(t, testConfig(5))
	device := headlessDevice(t, e)
	assert.NotEqual(t, [16]byte{}, [16]byte(e.RunID()))

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(5), e.Renderer().FrameCount())

	timeline := device.Timeline()
	assert.Equal(t, 5, countOps(timeline, gpu.OpPresent))
	// player and enemy from the first frame on
	assert.Equal(t, 10, countOps(timeline, gpu.OpDrawIndexed))
	// camera and two objects per frame
	assert.Equal(t, 15, countOps(timeline, gpu.OpSetDescriptorTable))

	assert.Error(t, e.Run(context.Background()))
}

func TestRunScriptedInput(t *testing.T) {
	w, err := window.NewWindow(
		window.WithBackend(window.BackendTypeHeadless),
		window.WithWidth(640),
		window.WithHeight(480),
		window.WithFrameLimit(12),
		window.WithFrameHook(func(h window.HeadlessWindow, frame int) {
			switch frame {
			case 0:
				h.PressKey(common.KeyW)
				h.PressKey(common.KeyB)
			case 10:
				h.ReleaseKey(common.KeyW)
				h.ReleaseKey(common.KeyB)
			}
		}),
	)
	require.NoError(t, err)

	var e Engine
	var counts []int
	var playerZ float32
	e = newTestEngine(t, testConfig(0), WithWindow(w), WithFrameCallback(func(frame uint64, dt float32) {
		counts = append(counts, e.Objects().Len())
		if p, ok := e.Objects().Object(1); ok {
			playerZ = p.Position().Z()
		}
	}))

	require.NoError(t, e.Run(context.Background()))
	require.Len(t, counts, 12)
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 3, counts[1])
	assert.Equal(t, 3, counts[11])
	assert.InDelta(t, 0.6, playerZ, 1e-5)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := newTestEngine(t, testConfig(0), WithFrameCallback(func(frame uint64, dt float32) {
		if frame == 3 {
			cancel()
		}
	}))
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, uint64(3), e.Renderer().FrameCount())
}

func TestRunStopsOnDeviceLoss(t *testing.T) {
	var e Engine
	e = newTestEngine(t, testConfig(10), WithFrameCallback(func(frame uint64, dt float32) {
		if frame == 2 {
			headlessDevice(t, e).LoseDevice()
		}
	}))
	err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDeviceLost))
	assert.True(t, common.IsFatal(err))
	assert.Equal(t, uint64(1), e.Renderer().FrameCount())
}

func TestRunAppliesResize(t *testing.T) {
	w, err := window.NewWindow(
		window.WithBackend(window.BackendTypeHeadless),
		window.WithWidth(640),
		window.WithHeight(480),
		window.WithFrameLimit(3),
		window.WithFrameHook(func(h window.HeadlessWindow, frame int) {
			if frame == 1 {
				h.Resize(800, 400)
			}
		}),
	)
	require.NoError(t, err)
	e := newTestEngine(t, testConfig(0), WithWindow(w))
	device := headlessDevice(t, e)

	require.NoError(t, e.Run(context.Background()))
	w2, h2 := e.Renderer().Size()
	assert.Equal(t, uint32(800), w2)
	assert.Equal(t, uint32(400), h2)
	assert.InDelta(t, 2.0, e.Camera().Aspect(), 1e-6)

	var widths []float32
	for _, c := range device.Timeline() {
		if c.Op == gpu.OpSetViewport {
			widths = append(widths, c.Viewport.Width)
		}
	}
	assert.Equal(t, []float32{640, 800, 800}, widths)
}

func TestNewEngineStartupFailure(t *testing.T) {
	cfg := testConfig(1)
	cfg.Renderer.ShaderPath = "missing.wgsl"
	_, err := NewEngine(context.Background(), cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithShaderOptions(shader.WithCompiler(fakeCompiler)),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrShaderCompileFailed))

	cfg = testConfig(1)
	cfg.Renderer.BufferCount = 1
	_, err = NewEngine(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewEngineRejectsMismatchedUniform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.wgsl")
	src := `
struct SceneConstants { view: mat4x4<f32>, projection: mat4x4<f32>, }
struct ObjectConstants { world: mat4x4<f32>, }
@group(0) @binding(0) var<uniform> scene: SceneConstants;
@group(1) @binding(0) var<uniform> entity: ObjectConstants;
@vertex fn vs() -> @builtin(position) vec4<f32> { return scene.view * entity.world[0]; }
@fragment fn ps() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg := testConfig(1)
	cfg.Renderer.ShaderPath = path
	_, err := NewEngine(context.Background(), cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithShaderOptions(shader.WithCompiler(fakeCompiler)),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrShaderCompileFailed))
	assert.Contains(t, err.Error(), "ObjectConstants is 64 bytes")
}

func TestSceneKinds(t *testing.T) {
	e := newTestEngine(t, testConfig(1))
	require.NoError(t, e.Run(context.Background()))
	// objects are cleared on shutdown
	assert.Equal(t, 0, e.Objects().Len())
	_, ok := game_object.BehaviorOf(game_object.KindBullet)
	assert.True(t, ok)
}
