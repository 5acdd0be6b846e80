package vkdriver

import (
	"testing"

	"github.com/andewx/vkcube"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestTable(t *testing.T) {
	var tab table[string]
	assert.Equal(t, "", tab.get(0))

	a := tab.put("a")
	b := tab.put("b")
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "b", tab.get(b))
	assert.Equal(t, 2, tab.len())

	got, ok := tab.take(a)
	require.True(t, ok)
	assert.Equal(t, "a", got)
	_, ok = tab.take(a)
	assert.False(t, ok)
	assert.Equal(t, 1, tab.len())

	assert.NotEqual(t, a, tab.put("c"), "handles are not reused")
}

func TestNewError(t *testing.T) {
	tests := []struct {
		name   string
		ret    vk.Result
		target error
	}{
		{"out of date", vk.ErrorOutOfDate, vkcube.ErrOutOfDate},
		{"surface lost", vk.ErrorSurfaceLost, vkcube.ErrSurfaceLost},
		{"timeout", vk.Timeout, vkcube.ErrDeviceHang},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(newError(tt.ret), tt.target))
		})
	}

	assert.NoError(t, newError(vk.Success))
	err := newError(vk.ErrorDeviceLost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TestNewError")
}

func TestQueueCreateInfos(t *testing.T) {
	infos := queueCreateInfos(vkcube.DeviceInfo{QueueFamilies: []uint32{0, 2}})
	require.Len(t, infos, 2)
	for i, family := range []uint32{0, 2} {
		assert.Equal(t, family, infos[i].QueueFamilyIndex)
		assert.Equal(t, uint32(1), infos[i].QueueCount)
		assert.Equal(t, []float32{0}, infos[i].PQueuePriorities)
	}
}

func TestPresentResult(t *testing.T) {
	suboptimal, err := presentResult(vk.Suboptimal)
	assert.True(t, suboptimal)
	assert.NoError(t, err)

	suboptimal, err = presentResult(vk.Success)
	assert.False(t, suboptimal)
	assert.NoError(t, err)

	suboptimal, err = presentResult(vk.ErrorOutOfDate)
	assert.False(t, suboptimal)
	assert.True(t, errors.Is(err, vkcube.ErrOutOfDate))
}

func TestPackRows(t *testing.T) {
	px := vkcube.TexturePixels{Width: 2, Height: 2, RGBA: []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}}
	dst := make([]byte, 4+2*12)
	n := packRows(dst, 4, 12, px)
	assert.Equal(t, 16, n)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, dst[4:12])
	assert.Equal(t, []byte{0, 0, 0, 0}, dst[12:16])
	assert.Equal(t, []byte{9, 10, 11, 12, 13, 14, 15, 16}, dst[16:24])

	short := make([]byte, 10)
	assert.Equal(t, 8, packRows(short, 0, 8, px))
}

func TestSliceUint32(t *testing.T) {
	words := sliceUint32([]byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0})
	require.Len(t, words, 2)
	assert.Nil(t, sliceUint32([]byte{1, 2}))
}

func TestSafeStrings(t *testing.T) {
	assert.Equal(t, "VK_KHR_surface\x00", safeString("VK_KHR_surface"))
	assert.Equal(t, "x\x00", safeString("x\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b\x00"}))
}

func TestTransitionAccess(t *testing.T) {
	tests := []struct {
		name     string
		from, to vkcube.ImageLayout
		src, dst vk.AccessFlags
	}{
		{
			"linear texture",
			vkcube.ImageLayoutPreinitialized, vkcube.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessFlags(vk.AccessHostWriteBit),
			vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessInputAttachmentReadBit),
		},
		{
			"staging source",
			vkcube.ImageLayoutPreinitialized, vkcube.ImageLayoutTransferSrcOptimal,
			vk.AccessFlags(vk.AccessHostWriteBit),
			vk.AccessFlags(vk.AccessTransferReadBit),
		},
		{
			"copy done",
			vkcube.ImageLayoutTransferDstOptimal, vkcube.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessFlags(vk.AccessTransferWriteBit),
			vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessInputAttachmentReadBit),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := transitionAccess(tt.from, tt.to)
			assert.Equal(t, tt.src, src)
			assert.Equal(t, tt.dst, dst)
		})
	}
}
