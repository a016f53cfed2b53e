package window

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// WindowBackendType selects the platform a Window runs on.
type WindowBackendType int

const (
	// BackendTypeGLFW opens a native window through GLFW.
	BackendTypeGLFW WindowBackendType = iota

	// BackendTypeHeadless runs without a display. The message pump ends after a frame limit.
	BackendTypeHeadless
)

func (t WindowBackendType) String() string {
	switch t {
	case BackendTypeGLFW:
		return "glfw"
	case BackendTypeHeadless:
		return "headless"
	default:
		return fmt.Sprintf("WindowBackendType(%d)", int(t))
	}
}

// ParseBackendType maps a configuration name onto a backend. The empty name selects GLFW.
//
// Parameters:
//   - name: "glfw", "headless" or ""
//
// Returns:
//   - WindowBackendType: the backend
//   - error: the name is not a known backend
func ParseBackendType(name string) (WindowBackendType, error) {
	switch name {
	case "", "glfw":
		return BackendTypeGLFW, nil
	case "headless":
		return BackendTypeHeadless, nil
	default:
		return 0, errors.Newf("unknown window backend %q", name)
	}
}

// Window provides platform windowing and keyboard event delivery.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetResizeCallback sets the function called when the client area changes size.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil for a headless window
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// ProcessMessages drains pending platform events without blocking, delivering them to the
	// registered callbacks.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	ProcessMessages() bool

	// Close closes the window and releases platform resources. Closing twice is a no-op.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// Width returns the current window client area width in pixels.
	Width() int

	// Height returns the current window client area height in pixels.
	Height() int
}

// platformWindow is what each backend implements for engineWindow.
type platformWindow interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	isRunning() bool
	pump() bool
	close() error
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, the platform window and event callbacks.
type engineWindow struct {
	backend WindowBackendType
	logger  *slog.Logger

	// title is the window title displayed in the title bar.
	title string

	// width and height are the current client area size in pixels.
	width  int
	height int

	// frameLimit ends a headless message pump after this many calls. Zero runs until closed.
	frameLimit int

	// frameHook is called by a headless window on every pump.
	frameHook func(w HeadlessWindow, frame int)

	platform platformWindow
	closed   bool

	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		backend: BackendTypeGLFW,
		logger:  slog.Default(),
		title:   "oxy-lite",
		width:   1280,
		height:  720,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.width <= 0 || w.height <= 0 {
		return nil, errors.Newf("window size %dx%d must be positive", w.width, w.height)
	}

	var err error
	switch w.backend {
	case BackendTypeGLFW:
		w.platform, err = newGLFWWindow(w)
	case BackendTypeHeadless:
		w.platform = newHeadlessWindow(w)
	default:
		err = errors.Newf("unknown window backend %s", w.backend)
	}
	if err != nil {
		return nil, common.MarkError(err, common.ErrNotInitialized, "create %s window %q", w.backend, w.title)
	}
	w.logger.Debug("window created", "backend", w.backend, "width", w.width, "height", w.height)
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.closed {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return !w.closed && w.platform.isRunning()
}

func (w *engineWindow) ProcessMessages() bool {
	if w.closed {
		return false
	}
	return w.platform.pump()
}

func (w *engineWindow) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.platform.close()
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// keyDown delivers a key press; Escape asks the window to close instead.
func (w *engineWindow) keyDown(code uint32) (quit bool) {
	if code == common.KeyEsc {
		return true
	}
	if w.onKeyDown != nil {
		w.onKeyDown(code)
	}
	return false
}

func (w *engineWindow) keyUp(code uint32) {
	if w.onKeyUp != nil {
		w.onKeyUp(code)
	}
}

// resized records a new client area size and forwards it when it actually changed.
func (w *engineWindow) resized(width, height int) {
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
