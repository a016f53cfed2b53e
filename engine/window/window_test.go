package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadlessFrameLimit(t *testing.T) {
	var seen []int
	w, err := NewWindow(
		WithBackend(BackendTypeHeadless),
		WithFrameLimit(3),
		WithFrameHook(func(_ HeadlessWindow, frame int) { seen = append(seen, frame) }),
	)
	require.NoError(t, err)
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())

	pumps := 0
	for w.ProcessMessages() {
		pumps++
	}
	assert.Equal(t, 3, pumps)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestHeadlessKeyEvents(t *testing.T) {
	var down, up []uint32
	w, err := NewWindow(
		WithBackend(BackendTypeHeadless),
		WithFrameHook(func(h HeadlessWindow, frame int) {
			switch frame {
			case 0:
				h.PressKey(common.KeyW)
			case 1:
				h.ReleaseKey(common.KeyW)
			case 2:
				h.PressKey(common.KeyEsc)
			}
		}),
	)
	require.NoError(t, err)
	w.SetKeyDownCallback(func(code uint32) { down = append(down, code) })
	w.SetKeyUpCallback(func(code uint32) { up = append(up, code) })

	assert.True(t, w.ProcessMessages())
	assert.True(t, w.ProcessMessages())
	assert.False(t, w.ProcessMessages())
	assert.False(t, w.ProcessMessages())
	assert.Equal(t, []uint32{common.KeyW}, down)
	assert.Equal(t, []uint32{common.KeyW}, up)
}

func TestHeadlessResize(t *testing.T) {
	var sizes [][2]int
	w, err := NewWindow(
		WithBackend(BackendTypeHeadless),
		WithWidth(640),
		WithHeight(480),
		WithFrameHook(func(h HeadlessWindow, frame int) {
			h.Resize(800, 600)
		}),
	)
	require.NoError(t, err)
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })

	w.ProcessMessages()
	w.ProcessMessages()
	assert.Equal(t, [][2]int{{800, 600}}, sizes)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
}

func TestHeadlessRequestClose(t *testing.T) {
	w, err := NewWindow(WithBackend(BackendTypeHeadless), WithFrameHook(func(h HeadlessWindow, frame int) {
		if frame == 1 {
			h.RequestClose()
		}
	}))
	require.NoError(t, err)
	assert.True(t, w.ProcessMessages())
	assert.False(t, w.ProcessMessages())
}

func TestNewWindowRejectsBadConfig(t *testing.T) {
	_, err := NewWindow(WithBackend(BackendTypeHeadless), WithWidth(0))
	assert.Error(t, err)

	_, err = NewWindow(WithBackend(WindowBackendType(9)))
	assert.Error(t, err)
	assert.Equal(t, "WindowBackendType(9)", WindowBackendType(9).String())
}

func TestParseBackendType(t *testing.T) {
	for name, want := range map[string]WindowBackendType{"": BackendTypeGLFW, "glfw": BackendTypeGLFW, "headless": BackendTypeHeadless} {
		got, err := ParseBackendType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseBackendType("sdl")
	assert.Error(t, err)
}
