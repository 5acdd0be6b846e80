package vkcube

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectQueueFamilies(t *testing.T) {
	graphicsOnly := QueueFamily{Flags: QueueGraphics, Count: 1}
	computeOnly := QueueFamily{Flags: QueueCompute, Count: 1}

	tests := []struct {
		name     string
		families []QueueFamily
		present  map[uint32]bool
		graphics uint32
		presentF uint32
		separate bool
		fatal    bool
	}{
		{"single family", []QueueFamily{graphicsOnly}, map[uint32]bool{0: true}, 0, 0, false, false},
		{"combined family preferred", []QueueFamily{graphicsOnly, computeOnly, graphicsOnly}, map[uint32]bool{1: true, 2: true}, 2, 2, false, false},
		{"separate families", []QueueFamily{computeOnly, graphicsOnly, computeOnly}, map[uint32]bool{2: true}, 1, 2, true, false},
		{"first present family", []QueueFamily{graphicsOnly, computeOnly, computeOnly}, map[uint32]bool{1: true, 2: true}, 0, 1, true, false},
		{"no graphics", []QueueFamily{computeOnly}, map[uint32]bool{0: true}, 0, 0, false, true},
		{"no present", []QueueFamily{graphicsOnly}, map[uint32]bool{}, 0, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, p, separate, err := SelectQueueFamilies(tt.families, func(family uint32) (bool, error) {
				return tt.present[family], nil
			})
			if tt.fatal {
				kind, ok := IsFatal(err)
				require.True(t, ok)
				assert.Equal(t, FatalNoQueueFamilies, kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.graphics, g)
			assert.Equal(t, tt.presentF, p)
			assert.Equal(t, tt.separate, separate)
		})
	}
}

func TestSelectQueueFamiliesQueryError(t *testing.T) {
	boom := errors.New("boom")
	_, _, _, err := SelectQueueFamilies([]QueueFamily{{Flags: QueueGraphics}}, func(uint32) (bool, error) {
		return false, boom
	})
	assert.True(t, errors.Is(err, boom))
}

func TestCreateDeviceContext(t *testing.T) {
	f := newFakeDriver()
	f.separatePresent()
	disc, err := Discover(f, testConfig(), NopLogger())
	require.NoError(t, err)
	surface, err := f.surfaces()(disc.Instance)
	require.NoError(t, err)

	ctx, err := CreateDeviceContext(f, disc, surface, NopLogger())
	require.NoError(t, err)
	assert.True(t, ctx.SeparatePresentQueue)
	assert.Equal(t, uint32(0), ctx.GraphicsFamily)
	assert.Equal(t, uint32(1), ctx.PresentFamily)
	assert.NotEqual(t, ctx.GraphicsQueue, ctx.PresentQueue)
	require.Len(t, f.deviceInfos, 1)
	assert.Equal(t, []string{SwapchainExtension}, f.deviceInfos[0].Extensions)
	assert.Zero(t, f.deviceInfos[0].QueuePriority)
	assert.Equal(t, []string{KhronosValidationLayer}, f.deviceInfos[0].Layers)
}
