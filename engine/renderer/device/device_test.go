package device

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectSkipsSoftwareAndUnsupportedAdapters(t *testing.T) {
	instance := gpu.NewHeadlessInstance(gpu.WithHeadlessAdapters(
		gpu.HeadlessAdapterConfig{Name: "Basic Render Driver", Software: true, FeatureLevel: gpu.FeatureLevel12_0},
		gpu.HeadlessAdapterConfig{Name: "Old GPU", FeatureLevel: -1},
		gpu.HeadlessAdapterConfig{Name: "Discrete GPU", FeatureLevel: gpu.FeatureLevel12_0},
	))

	d, err := Select(instance)
	require.NoError(t, err)
	defer d.Release()

	assert.Equal(t, "Discrete GPU", d.Adapter().Name)
	assert.Equal(t, gpu.FeatureLevel12_0, d.FeatureLevel())
	assert.NotZero(t, d.DescriptorIncrement(gpu.DescriptorKindRTV))
}

func TestSelectAcceptsSoftwareWhenForced(t *testing.T) {
	instance := gpu.NewHeadlessInstance(gpu.WithHeadlessAdapters(
		gpu.HeadlessAdapterConfig{Name: "WARP", Software: true, FeatureLevel: gpu.FeatureLevel12_0},
	))

	d, err := Select(instance, WithForceFallbackAdapter(true))
	require.NoError(t, err)
	assert.Equal(t, "WARP", d.Adapter().Name)
}

func TestSelectErrors(t *testing.T) {
	cases := []struct {
		name     string
		adapters []gpu.HeadlessAdapterConfig
		want     error
	}{
		{
			name:     "no adapters",
			adapters: []gpu.HeadlessAdapterConfig{},
			want:     common.ErrAdapterNotFound,
		},
		{
			name: "only software",
			adapters: []gpu.HeadlessAdapterConfig{
				{Name: "WARP", Software: true, FeatureLevel: gpu.FeatureLevel12_0},
			},
			want: common.ErrFeatureLevelUnsupported,
		},
		{
			name: "below minimum",
			adapters: []gpu.HeadlessAdapterConfig{
				{Name: "Old GPU", FeatureLevel: -1},
			},
			want: common.ErrFeatureLevelUnsupported,
		},
		{
			name: "passes probe but cannot create at 12_0",
			adapters: []gpu.HeadlessAdapterConfig{
				{Name: "FL11 GPU", FeatureLevel: gpu.FeatureLevel11_0},
			},
			want: common.ErrDeviceCreationFailed,
		},
		{
			name: "driver refuses",
			adapters: []gpu.HeadlessAdapterConfig{
				{Name: "Broken GPU", FeatureLevel: gpu.FeatureLevel12_0, FailDeviceCreation: true},
			},
			want: common.ErrDeviceCreationFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Select(gpu.NewHeadlessInstance(gpu.WithHeadlessAdapters(tc.adapters...)))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, common.IsFatal(err))
		})
	}
}
