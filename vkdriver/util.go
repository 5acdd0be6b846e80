package vkdriver

import (
	"unsafe"

	"github.com/andewx/vkcube"
	vk "github.com/vulkan-go/vulkan"
)

// safeString terminates s for the C side.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// sliceUint32 reinterprets SPIR-V bytecode as words.
func sliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// packRows copies tightly packed RGBA rows into dst laid out with rowPitch
// bytes per row starting at offset.
func packRows(dst []byte, offset, rowPitch uint64, px vkcube.TexturePixels) int {
	stride := uint64(px.Width) * 4
	var n int
	for y := uint64(0); y < uint64(px.Height); y++ {
		start := offset + y*rowPitch
		if start+stride > uint64(len(dst)) {
			break
		}
		n += copy(dst[start:start+stride], px.RGBA[y*stride:(y+1)*stride])
	}
	return n
}

// findMemoryType returns the first memory type allowed by typeBits with all
// of the wanted properties.
func findMemoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, want vk.MemoryPropertyFlagBits) (uint32, bool) {
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		props.MemoryTypes[i].Deref()
		flags := props.MemoryTypes[i].PropertyFlags
		if flags&vk.MemoryPropertyFlags(want) == vk.MemoryPropertyFlags(want) {
			return i, true
		}
	}
	return 0, false
}

func toExtent2D(e vkcube.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func fromExtent2D(e vk.Extent2D) vkcube.Extent {
	return vkcube.Extent{Width: e.Width, Height: e.Height}
}
