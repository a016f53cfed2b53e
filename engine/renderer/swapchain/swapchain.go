package swapchain

import (
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

type swapChain struct {
	desc  gpu.SwapChainDesc
	chain gpu.SwapChain
}

// SwapChain owns the rotating set of back buffers presented to the window surface.
type SwapChain interface {
	// BufferCount returns the number of back buffers.
	BufferCount() int

	// CurrentBackBufferIndex returns the index of the back buffer the next frame draws into.
	CurrentBackBufferIndex() int

	// BackBuffer returns a back buffer image by index. The image is borrowed from the swap chain.
	//
	// Parameters:
	//   - index: the back buffer index
	//
	// Returns:
	//   - gpu.Texture: the image
	//   - error: an error if index is out of range
	BackBuffer(index int) (gpu.Texture, error)

	// Present hands the current back buffer to the display and advances the index.
	//
	// Returns:
	//   - error: the present error, ErrDeviceLost when the surface is gone
	Present() error

	// Resize resizes every back buffer. The GPU must be idle.
	//
	// Parameters:
	//   - width: the new width
	//   - height: the new height
	//
	// Returns:
	//   - error: the resize error
	Resize(width, height uint32) error

	// Size returns the current back buffer size.
	Size() (uint32, uint32)

	// Format returns the back buffer format.
	Format() gpu.TextureFormat

	// SyncInterval returns the sync interval passed to Present: 1 with vsync, otherwise 0.
	SyncInterval() int

	// Release destroys the swap chain.
	Release()
}

var _ SwapChain = &swapChain{}

// NewSwapChain creates the swap chain for the device's window surface.
//
// Parameters:
//   - device: the device
//   - options: functional options for buffer count, size, format and vsync
//
// Returns:
//   - SwapChain: the new swap chain
//   - error: an error if the device cannot create it
func NewSwapChain(device gpu.Device, options ...SwapChainBuilderOption) (SwapChain, error) {
	s := &swapChain{
		desc: gpu.SwapChainDesc{
			Width:       1280,
			Height:      720,
			BufferCount: 2,
			Format:      gpu.TextureFormatRGBA8Unorm,
			VSync:       true,
		},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.desc.BufferCount < 2 {
		return nil, errors.Newf("swap chain needs at least 2 back buffers, got %d", s.desc.BufferCount)
	}

	chain, err := device.CreateSwapChain(s.desc)
	if err != nil {
		return nil, errors.Wrap(err, "create swap chain")
	}
	s.chain = chain
	s.desc.Format = chain.Format()
	return s, nil
}

func (s *swapChain) BufferCount() int {
	return s.chain.BufferCount()
}

func (s *swapChain) CurrentBackBufferIndex() int {
	return s.chain.CurrentBackBufferIndex()
}

func (s *swapChain) BackBuffer(index int) (gpu.Texture, error) {
	return s.chain.BackBuffer(index)
}

func (s *swapChain) Present() error {
	return s.chain.Present(s.SyncInterval())
}

func (s *swapChain) Resize(width, height uint32) error {
	if err := s.chain.Resize(width, height); err != nil {
		return errors.Wrapf(err, "resize swap chain to %dx%d", width, height)
	}
	s.desc.Width, s.desc.Height = width, height
	return nil
}

func (s *swapChain) Size() (uint32, uint32) {
	return s.desc.Width, s.desc.Height
}

func (s *swapChain) Format() gpu.TextureFormat {
	return s.desc.Format
}

func (s *swapChain) SyncInterval() int {
	if s.desc.VSync {
		return 1
	}
	return 0
}

func (s *swapChain) Release() {
	if s.chain != nil {
		s.chain.Release()
		s.chain = nil
	}
}
