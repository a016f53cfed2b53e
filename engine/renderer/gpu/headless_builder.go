package gpu

import "time"

// HeadlessAdapterConfig describes one adapter exposed by a headless instance.
type HeadlessAdapterConfig struct {
	// Name is reported through AdapterInfo.
	Name string
	// Software marks the adapter as a software rasterizer.
	Software bool
	// FeatureLevel is the highest tier the adapter passes.
	FeatureLevel FeatureLevel
	// FailDeviceCreation makes CreateDevice fail on this adapter.
	FailDeviceCreation bool
}

// HeadlessBuilderOption is a functional option used to configure a headless Instance during construction.
type HeadlessBuilderOption func(*headlessInstance)

// WithHeadlessAdapters replaces the default single hardware adapter with the given set.
//
// Parameters:
//   - adapters: the adapters to expose, in enumeration order
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the adapter list
func WithHeadlessAdapters(adapters ...HeadlessAdapterConfig) HeadlessBuilderOption {
	return func(i *headlessInstance) {
		i.adapters = adapters
	}
}

// WithCompletionLatency makes submitted work complete asynchronously after d instead of on the next Poll.
//
// Parameters:
//   - d: the simulated GPU execution time of one submission
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the completion latency
func WithCompletionLatency(d time.Duration) HeadlessBuilderOption {
	return func(i *headlessInstance) {
		i.latency = d
	}
}

// WithHeadlessSurfaceSize sets the initial back buffer size reported before the first Resize.
//
// Parameters:
//   - width: surface width in pixels
//   - height: surface height in pixels
//
// Returns:
//   - HeadlessBuilderOption: a function that sets the surface size
func WithHeadlessSurfaceSize(width, height uint32) HeadlessBuilderOption {
	return func(i *headlessInstance) {
		i.width = width
		i.height = height
	}
}
