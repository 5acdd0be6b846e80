package vkdriver

import (
	"unsafe"

	"github.com/andewx/vkcube"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// allocate backs a resource with memory of the wanted properties.
func (d *Driver) allocate(reqs vk.MemoryRequirements, want vk.MemoryPropertyFlagBits) (allocation, error) {
	reqs.Deref()
	memType, ok := findMemoryType(d.memProps, reqs.MemoryTypeBits, want)
	if !ok {
		return allocation{}, errors.Errorf("vulkan: no memory type for bits %#x with properties %#x", reqs.MemoryTypeBits, want)
	}
	var mem vk.DeviceMemory
	ret := vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &mem)
	if isError(ret) {
		return allocation{}, newError(ret)
	}
	return allocation{memory: mem, size: reqs.Size}, nil
}

// CreateImage creates a single mip, single layer 2D image in the
// preinitialized layout and binds memory to it.
func (d *Driver) CreateImage(info vkcube.ImageInfo) (vkcube.Image, vkcube.Memory, error) {
	var img vk.Image
	ret := vk.CreateImage(d.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTiling(info.Tiling),
		Usage:         vk.ImageUsageFlags(info.Usage),
		InitialLayout: vk.ImageLayoutPreinitialized,
	}, nil, &img)
	if isError(ret) {
		return 0, 0, newError(ret)
	}

	want := vk.MemoryPropertyDeviceLocalBit
	if info.HostVisible {
		want = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	}
	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, img, &reqs)
	alloc, err := d.allocate(reqs, want)
	if err != nil {
		vk.DestroyImage(d.device, img, nil)
		return 0, 0, err
	}
	if ret := vk.BindImageMemory(d.device, img, alloc.memory, 0); isError(ret) {
		vk.FreeMemory(d.device, alloc.memory, nil)
		vk.DestroyImage(d.device, img, nil)
		return 0, 0, newError(ret)
	}
	return vkcube.Image(d.images.put(img)), vkcube.Memory(d.memories.put(alloc)), nil
}

// DestroyImage destroys the image and frees its memory.
func (d *Driver) DestroyImage(h vkcube.Image, mem vkcube.Memory) {
	if img, ok := d.images.take(uint64(h)); ok {
		vk.DestroyImage(d.device, img, nil)
	}
	d.free(mem)
}

func (d *Driver) free(h vkcube.Memory) {
	if alloc, ok := d.memories.take(uint64(h)); ok {
		vk.FreeMemory(d.device, alloc.memory, nil)
	}
}

// WriteImage copies pixels into a host-visible linear image, honoring the
// row pitch the implementation chose.
func (d *Driver) WriteImage(h vkcube.Image, mem vkcube.Memory, pixels vkcube.TexturePixels) error {
	alloc := d.memories.get(uint64(mem))
	var layout vk.SubresourceLayout
	vk.GetImageSubresourceLayout(d.device, d.images.get(uint64(h)), &vk.ImageSubresource{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	}, &layout)
	layout.Deref()

	var data unsafe.Pointer
	if ret := vk.MapMemory(d.device, alloc.memory, 0, alloc.size, 0, &data); isError(ret) {
		return newError(ret)
	}
	defer vk.UnmapMemory(d.device, alloc.memory)

	dst := unsafe.Slice((*byte)(data), int(alloc.size))
	want := int(pixels.Width) * int(pixels.Height) * 4
	if n := packRows(dst, uint64(layout.Offset), uint64(layout.RowPitch), pixels); n != want {
		return errors.Errorf("vulkan: wrote %d of %d texture bytes", n, want)
	}
	return nil
}

// CreateImageView creates a 2D view over one mip level and layer.
func (d *Driver) CreateImageView(info vkcube.ImageViewInfo) (vkcube.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images.get(uint64(info.Image)),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(info.Aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.ImageView(d.views.put(view)), nil
}

func (d *Driver) DestroyImageView(h vkcube.ImageView) {
	if view, ok := d.views.take(uint64(h)); ok {
		vk.DestroyImageView(d.device, view, nil)
	}
}

// CreateSampler creates a nearest-filtered, edge-clamped sampler.
func (d *Driver) CreateSampler() (vkcube.Sampler, error) {
	var sampler vk.Sampler
	ret := vk.CreateSampler(d.device, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterNearest,
		MinFilter:               vk.FilterNearest,
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareOp:               vk.CompareOpNever,
		BorderColor:             vk.BorderColorFloatOpaqueWhite,
		UnnormalizedCoordinates: vk.False,
	}, nil, &sampler)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.Sampler(d.samplers.put(sampler)), nil
}

func (d *Driver) DestroySampler(h vkcube.Sampler) {
	if sampler, ok := d.samplers.take(uint64(h)); ok {
		vk.DestroySampler(d.device, sampler, nil)
	}
}

// CreateBuffer creates a host-visible, coherent buffer.
func (d *Driver) CreateBuffer(size uint64, usage vkcube.BufferUsage) (vkcube.Buffer, vkcube.Memory, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if isError(ret) {
		return 0, 0, newError(ret)
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, buffer, &reqs)
	alloc, err := d.allocate(reqs, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(d.device, buffer, nil)
		return 0, 0, err
	}
	if ret := vk.BindBufferMemory(d.device, buffer, alloc.memory, 0); isError(ret) {
		vk.FreeMemory(d.device, alloc.memory, nil)
		vk.DestroyBuffer(d.device, buffer, nil)
		return 0, 0, newError(ret)
	}
	return vkcube.Buffer(d.buffers.put(buffer)), vkcube.Memory(d.memories.put(alloc)), nil
}

// DestroyBuffer destroys the buffer and frees its memory.
func (d *Driver) DestroyBuffer(h vkcube.Buffer, mem vkcube.Memory) {
	if buffer, ok := d.buffers.take(uint64(h)); ok {
		vk.DestroyBuffer(d.device, buffer, nil)
	}
	d.free(mem)
}

// MapMemory maps size bytes of mem. The slice aliases device memory and is
// valid until UnmapMemory.
func (d *Driver) MapMemory(h vkcube.Memory, size uint64) ([]byte, error) {
	alloc := d.memories.get(uint64(h))
	var data unsafe.Pointer
	if ret := vk.MapMemory(d.device, alloc.memory, 0, vk.DeviceSize(size), 0, &data); isError(ret) {
		return nil, newError(ret)
	}
	return unsafe.Slice((*byte)(data), int(size)), nil
}

func (d *Driver) UnmapMemory(h vkcube.Memory) {
	vk.UnmapMemory(d.device, d.memories.get(uint64(h)).memory)
}
