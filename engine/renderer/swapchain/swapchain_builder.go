package swapchain

import "github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"

// SwapChainBuilderOption is a functional option used to configure a SwapChain during construction.
type SwapChainBuilderOption func(*swapChain)

// WithBufferCount sets the number of back buffers.
//
// Parameters:
//   - n: the back buffer count, at least 2 (default 2)
//
// Returns:
//   - SwapChainBuilderOption: a function that sets the buffer count
func WithBufferCount(n int) SwapChainBuilderOption {
	return func(s *swapChain) {
		s.desc.BufferCount = n
	}
}

// WithSize sets the initial back buffer size, normally the window's client size.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - SwapChainBuilderOption: a function that sets the size
func WithSize(width, height uint32) SwapChainBuilderOption {
	return func(s *swapChain) {
		s.desc.Width = width
		s.desc.Height = height
	}
}

// WithFormat sets the preferred back buffer format.
//
// Parameters:
//   - format: the format (default TextureFormatRGBA8Unorm)
//
// Returns:
//   - SwapChainBuilderOption: a function that sets the format
func WithFormat(format gpu.TextureFormat) SwapChainBuilderOption {
	return func(s *swapChain) {
		s.desc.Format = format
	}
}

// WithVSync sets whether Present waits for vertical blank.
//
// Parameters:
//   - enabled: true to present with sync interval 1 (default true)
//
// Returns:
//   - SwapChainBuilderOption: a function that sets vsync
func WithVSync(enabled bool) SwapChainBuilderOption {
	return func(s *swapChain) {
		s.desc.VSync = enabled
	}
}
