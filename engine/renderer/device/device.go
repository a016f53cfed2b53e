package device

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
)

type device struct {
	minimumLevel  gpu.FeatureLevel
	creationLevel gpu.FeatureLevel
	allowSoftware bool
	label         string
	logger        *slog.Logger

	adapter gpu.AdapterInfo
	gpu     gpu.Device
}

// Device is the selected adapter together with the logical device created on it.
// It is created once per run and released at teardown; there is no device-lost recovery.
type Device interface {
	// Adapter returns the identification of the selected adapter.
	//
	// Returns:
	//   - gpu.AdapterInfo: the adapter info
	Adapter() gpu.AdapterInfo

	// GPU returns the logical device.
	//
	// Returns:
	//   - gpu.Device: the device all GPU objects are created through
	GPU() gpu.Device

	// FeatureLevel returns the tier the device was created at.
	FeatureLevel() gpu.FeatureLevel

	// DescriptorIncrement returns the device-reported handle stride for a descriptor kind.
	DescriptorIncrement(kind gpu.DescriptorKind) uint32

	// Release destroys the logical device.
	Release()
}

var _ Device = &device{}

// Select walks the instance's adapters in order, skips software adapters and adapters failing the
// minimum feature level probe, and creates the logical device on the first one that passes.
//
// Parameters:
//   - instance: the backend instance to enumerate
//   - options: functional options for feature levels, fallback policy, label and logger
//
// Returns:
//   - Device: the selected device
//   - error: ErrAdapterNotFound, ErrFeatureLevelUnsupported or ErrDeviceCreationFailed
func Select(instance gpu.Instance, options ...DeviceBuilderOption) (Device, error) {
	d := &device{
		minimumLevel:  gpu.FeatureLevel11_0,
		creationLevel: gpu.FeatureLevel12_0,
		label:         "Main Device",
		logger:        slog.Default(),
	}
	for _, opt := range options {
		opt(d)
	}

	adapters := instance.EnumerateAdapters()
	if len(adapters) == 0 {
		return nil, common.MarkError(nil, common.ErrAdapterNotFound, "no adapters enumerated")
	}

	for _, a := range adapters {
		info := a.Info()
		if info.Software && !d.allowSoftware {
			d.logger.Debug("skipping software adapter", "adapter", info.Name)
			continue
		}
		if !a.SupportsFeatureLevel(d.minimumLevel) {
			d.logger.Debug("skipping adapter below minimum feature level", "adapter", info.Name, "level", d.minimumLevel.String())
			continue
		}

		created, err := a.CreateDevice(d.creationLevel, d.label)
		if err != nil {
			return nil, common.MarkError(err, common.ErrDeviceCreationFailed,
				"create device on %q at feature level %s", info.Name, d.creationLevel)
		}
		d.adapter = info
		d.gpu = created
		d.logger.Info("device created", "adapter", info.Name, "vendor", info.Vendor, "backend", info.Backend, "level", d.creationLevel.String())
		return d, nil
	}

	return nil, common.MarkError(nil, common.ErrFeatureLevelUnsupported,
		"none of %d adapters supports feature level %s", len(adapters), d.minimumLevel)
}

func (d *device) Adapter() gpu.AdapterInfo {
	return d.adapter
}

func (d *device) GPU() gpu.Device {
	return d.gpu
}

func (d *device) FeatureLevel() gpu.FeatureLevel {
	return d.creationLevel
}

func (d *device) DescriptorIncrement(kind gpu.DescriptorKind) uint32 {
	return d.gpu.DescriptorIncrement(kind)
}

func (d *device) Release() {
	if d.gpu != nil {
		d.gpu.Release()
		d.gpu = nil
	}
}
