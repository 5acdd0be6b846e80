package vkcube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	f := newFakeDriver()
	f.gpuCount = 2
	disc, err := Discover(f, testConfig(), NopLogger())
	require.NoError(t, err)

	assert.Equal(t, PhysicalDevice(1000), disc.GPU)
	assert.Equal(t, "fake gpu 1000", disc.Properties.Name)
	assert.Equal(t, []string{KhronosValidationLayer}, disc.Layers)
	assert.Equal(t, []string{SwapchainExtension}, disc.DeviceExtensions)
	assert.Equal(t, f.families, disc.QueueFamilies)

	require.Len(t, f.instanceInfos, 1)
	info := f.instanceInfos[0]
	assert.Equal(t, []string{SurfaceExtension, "VK_KHR_xcb_surface", DebugReportExtension}, info.Extensions)
	assert.True(t, info.Debug)
	assert.Equal(t, "vkcube", info.AppName)
}

func TestDiscoverWithoutValidation(t *testing.T) {
	f := newFakeDriver()
	f.layers = nil
	cfg := testConfig()
	cfg.Validate = false

	disc, err := Discover(f, cfg, NopLogger())
	require.NoError(t, err)
	assert.Empty(t, disc.Layers)
	assert.False(t, f.instanceInfos[0].Debug)
	assert.Equal(t, []string{SurfaceExtension, "VK_KHR_xcb_surface"}, f.instanceInfos[0].Extensions)
}

func TestDiscoverFatal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeDriver, cfg *Config)
		want  FatalKind
	}{
		{"missing layer", func(f *fakeDriver, cfg *Config) { f.layers = []string{"VK_LAYER_other"} }, FatalMissingLayer},
		{"missing surface extension", func(f *fakeDriver, cfg *Config) { f.instanceExts = []string{"VK_KHR_xcb_surface"} }, FatalMissingSurfaceExtension},
		{"missing platform extension", func(f *fakeDriver, cfg *Config) { cfg.PlatformSurfaceExtension = "VK_KHR_wayland_surface" }, FatalMissingPlatformSurfaceExtension},
		{"no physical device", func(f *fakeDriver, cfg *Config) { f.gpuCount = 0 }, FatalNoPhysicalDevice},
		{"missing swapchain extension", func(f *fakeDriver, cfg *Config) { f.deviceExts = nil }, FatalMissingDeviceExtension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeDriver()
			cfg := testConfig()
			tt.setup(f, &cfg)

			_, err := Discover(f, cfg, NopLogger())
			kind, ok := IsFatal(err)
			require.True(t, ok, "%v", err)
			assert.Equal(t, tt.want, kind)
			assert.Zero(t, f.count("instance"), "instance is released on failure")
			assert.Empty(t, f.errs)
		})
	}
}

func TestCheckExisting(t *testing.T) {
	assert.Empty(t, checkExisting([]string{"a", "b"}, []string{"b"}))
	assert.Equal(t, []string{"c"}, checkExisting([]string{"a", "b"}, []string{"a", "c"}))
	assert.Equal(t, []string{"a"}, checkExisting(nil, []string{"a"}))
}
