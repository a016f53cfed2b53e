package device

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
)

// DeviceBuilderOption is a functional option used to configure adapter selection and device creation.
type DeviceBuilderOption func(*device)

// WithMinimumFeatureLevel sets the tier an adapter must pass during enumeration.
//
// Parameters:
//   - level: the probe tier (default FeatureLevel11_0)
//
// Returns:
//   - DeviceBuilderOption: a function that sets the probe tier
func WithMinimumFeatureLevel(level gpu.FeatureLevel) DeviceBuilderOption {
	return func(d *device) {
		d.minimumLevel = level
	}
}

// WithCreationFeatureLevel sets the tier the logical device is created at.
//
// Parameters:
//   - level: the creation tier (default FeatureLevel12_0)
//
// Returns:
//   - DeviceBuilderOption: a function that sets the creation tier
func WithCreationFeatureLevel(level gpu.FeatureLevel) DeviceBuilderOption {
	return func(d *device) {
		d.creationLevel = level
	}
}

// WithForceFallbackAdapter allows software adapters to be selected.
//
// Parameters:
//   - force: true to accept software adapters
//
// Returns:
//   - DeviceBuilderOption: a function that sets the fallback policy
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *device) {
		d.allowSoftware = force
	}
}

// WithLabel sets the debug label of the logical device.
func WithLabel(label string) DeviceBuilderOption {
	return func(d *device) {
		d.label = label
	}
}

// WithLogger sets the logger used to report adapter selection.
func WithLogger(logger *slog.Logger) DeviceBuilderOption {
	return func(d *device) {
		d.logger = logger
	}
}
