package window

import "log/slog"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithBackend selects the platform backend.
//
// Parameters:
//   - backend: the backend type
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithBackend(backend WindowBackendType) WindowBuilderOption {
	return func(w *engineWindow) {
		w.backend = backend
	}
}

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithFrameLimit ends a headless window's message pump after the given number of calls.
// Ignored by platform windows.
//
// Parameters:
//   - frames: the number of frames to run; zero runs until the window is closed
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFrameLimit(frames int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.frameLimit = frames
	}
}

// WithFrameHook sets a function a headless window calls on every pump, before the frame runs.
// It is how scripted input reaches a headless run. Ignored by platform windows.
//
// Parameters:
//   - hook: function receiving the window and the zero-based frame number
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFrameHook(hook func(w HeadlessWindow, frame int)) WindowBuilderOption {
	return func(w *engineWindow) {
		w.frameHook = hook
	}
}

// WithLogger sets the logger window events are reported to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		w.logger = logger
	}
}
