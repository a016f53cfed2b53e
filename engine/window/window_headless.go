package window

import "github.com/cogentcore/webgpu/wgpu"

// HeadlessWindow is the Window a headless backend hands to its frame hook. Events raised through it
// are delivered exactly as a platform window would deliver them.
type HeadlessWindow interface {
	Window

	// PressKey delivers a key press. Escape closes the window.
	PressKey(code uint32)

	// ReleaseKey delivers a key release.
	ReleaseKey(code uint32)

	// Resize changes the client area size and fires the resize callback.
	Resize(width, height int)

	// RequestClose makes the next ProcessMessages return false.
	RequestClose()
}

type headlessWindow struct {
	*engineWindow
	frames  int
	running bool
}

var (
	_ platformWindow = &headlessWindow{}
	_ HeadlessWindow = &headlessWindow{}
)

func newHeadlessWindow(w *engineWindow) *headlessWindow {
	return &headlessWindow{engineWindow: w, running: true}
}

func (h *headlessWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}

func (h *headlessWindow) isRunning() bool {
	return h.running
}

func (h *headlessWindow) pump() bool {
	if !h.running {
		return false
	}
	if h.frameLimit > 0 && h.frames >= h.frameLimit {
		h.running = false
		return false
	}
	if h.frameHook != nil {
		h.frameHook(h, h.frames)
	}
	h.frames++
	return h.running
}

func (h *headlessWindow) close() error {
	h.running = false
	return nil
}

func (h *headlessWindow) PressKey(code uint32) {
	if h.keyDown(code) {
		h.running = false
	}
}

func (h *headlessWindow) ReleaseKey(code uint32) {
	h.keyUp(code)
}

func (h *headlessWindow) Resize(width, height int) {
	h.resized(width, height)
}

func (h *headlessWindow) RequestClose() {
	h.running = false
}
