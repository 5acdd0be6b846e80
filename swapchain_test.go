package vkcube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampImageCount(t *testing.T) {
	tests := []struct {
		name              string
		desired, min, max uint32
		want              uint32
	}{
		{"within bounds", 3, 2, 8, 3},
		{"below min", 3, 4, 8, 4},
		{"above max", 3, 1, 2, 2},
		{"no max", 3, 1, 0, 3},
		{"min above desired without max", 3, 5, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampImageCount(tt.desired, tt.min, tt.max))
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	mode, err := ChoosePresentMode(PresentModeFifo, nil)
	require.NoError(t, err)
	assert.Equal(t, PresentModeFifo, mode)

	mode, err = ChoosePresentMode(PresentModeMailbox, []PresentMode{PresentModeFifo, PresentModeMailbox})
	require.NoError(t, err)
	assert.Equal(t, PresentModeMailbox, mode)

	_, err = ChoosePresentMode(PresentModeImmediate, []PresentMode{PresentModeFifo, PresentModeMailbox})
	kind, ok := IsFatal(err)
	require.True(t, ok)
	assert.Equal(t, FatalUnsupportedPresentMode, kind)
	assert.Contains(t, err.Error(), "present mode unsupported")
}

func TestResolveExtent(t *testing.T) {
	undefined := SurfaceCapabilities{CurrentExtent: Extent{Width: UndefinedExtent, Height: UndefinedExtent}}
	assert.Equal(t, Extent{Width: 640, Height: 480}, ResolveExtent(undefined, 640, 480))

	fixed := SurfaceCapabilities{CurrentExtent: Extent{Width: 1920, Height: 1080}}
	assert.Equal(t, Extent{Width: 1920, Height: 1080}, ResolveExtent(fixed, 640, 480))
}

func TestChoosePreTransform(t *testing.T) {
	assert.Equal(t, SurfaceTransformIdentity, ChoosePreTransform(SurfaceCapabilities{
		SupportedTransforms: SurfaceTransformIdentity | SurfaceTransformRotate90,
		CurrentTransform:    SurfaceTransformRotate90,
	}))
	assert.Equal(t, SurfaceTransformRotate90, ChoosePreTransform(SurfaceCapabilities{
		SupportedTransforms: SurfaceTransformRotate90,
		CurrentTransform:    SurfaceTransformRotate90,
	}))
}

func TestChooseCompositeAlpha(t *testing.T) {
	tests := []struct {
		supported CompositeAlpha
		want      CompositeAlpha
	}{
		{CompositeAlphaOpaque | CompositeAlphaInherit, CompositeAlphaOpaque},
		{CompositeAlphaPostMultiplied | CompositeAlphaPreMultiplied, CompositeAlphaPreMultiplied},
		{CompositeAlphaPostMultiplied | CompositeAlphaInherit, CompositeAlphaPostMultiplied},
		{CompositeAlphaInherit, CompositeAlphaInherit},
		{0, CompositeAlphaOpaque},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChooseCompositeAlpha(tt.supported), "supported %#x", tt.supported)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	_, err := ChooseSurfaceFormat(nil)
	kind, ok := IsFatal(err)
	require.True(t, ok)
	assert.Equal(t, FatalNoSurfaceFormat, kind)

	f, err := ChooseSurfaceFormat([]SurfaceFormat{{Format: FormatUndefined}})
	require.NoError(t, err)
	assert.Equal(t, FormatB8G8R8A8Unorm, f.Format)

	f, err = ChooseSurfaceFormat([]SurfaceFormat{{Format: FormatB8G8R8A8Srgb}, {Format: FormatR8G8B8A8Unorm}})
	require.NoError(t, err)
	assert.Equal(t, FormatR8G8B8A8Unorm, f.Format)

	f, err = ChooseSurfaceFormat([]SurfaceFormat{{Format: FormatB8G8R8A8Srgb}})
	require.NoError(t, err)
	assert.Equal(t, FormatB8G8R8A8Srgb, f.Format)
}

func TestCreateSwapchainRetiresOld(t *testing.T) {
	f := newFakeDriver()
	e := newTestEngine(t, f, testConfig())
	require.Len(t, f.swapchainInfos, 1)
	info := f.swapchainInfos[0]
	assert.Equal(t, uint32(3), info.MinImageCount)
	assert.Equal(t, FormatB8G8R8A8Unorm, info.Format)
	assert.Equal(t, PresentModeFifo, info.PresentMode)
	assert.Equal(t, SurfaceTransformIdentity, info.PreTransform)
	assert.Equal(t, CompositeAlphaOpaque, info.CompositeAlpha)
	assert.Zero(t, info.Old)
	assert.Len(t, e.swapchain.Images, 3)
}
