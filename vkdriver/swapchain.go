package vkdriver

import (
	"github.com/andewx/vkcube"
	vk "github.com/vulkan-go/vulkan"
)

// CreateSwapchain creates an exclusively shared, clipped swapchain of color
// attachment images. info.Old is retired but not destroyed.
func (d *Driver) CreateSwapchain(info vkcube.SwapchainInfo) (vkcube.Swapchain, error) {
	var swapchain vk.Swapchain
	ret := vk.CreateSwapchain(d.device, &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surfaces.get(uint64(info.Surface)),
		MinImageCount:   info.MinImageCount,
		ImageFormat:     vk.Format(info.Format),
		ImageColorSpace: vk.ColorSpace(info.ColorSpace),
		ImageExtent:     toExtent2D(info.Extent),
		ImageUsage:      vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:    vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:  vk.CompositeAlphaFlagBits(info.CompositeAlpha),

		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      vk.PresentMode(info.PresentMode),
		OldSwapchain:     d.swapchains.get(uint64(info.Old)),
		Clipped:          vk.True,
	}, nil, &swapchain)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.Swapchain(d.swapchains.put(swapchain)), nil
}

// DestroySwapchain destroys the swapchain and drops its image handles.
func (d *Driver) DestroySwapchain(h vkcube.Swapchain) {
	swapchain, ok := d.swapchains.take(uint64(h))
	if !ok {
		return
	}
	for _, img := range d.swapchainImages[h] {
		d.images.take(uint64(img))
	}
	delete(d.swapchainImages, h)
	vk.DestroySwapchain(d.device, swapchain, nil)
}

// SwapchainImages returns the presentable images. They belong to the
// swapchain and go with it.
func (d *Driver) SwapchainImages(h vkcube.Swapchain) (handles []vkcube.Image, err error) {
	defer checkErr(&err)

	if known, ok := d.swapchainImages[h]; ok {
		return known, nil
	}
	swapchain := d.swapchains.get(uint64(h))
	var count uint32
	orPanic(newError(vk.GetSwapchainImages(d.device, swapchain, &count, nil)))
	images := make([]vk.Image, count)
	orPanic(newError(vk.GetSwapchainImages(d.device, swapchain, &count, images)))
	for _, img := range images[:count] {
		handles = append(handles, vkcube.Image(d.images.put(img)))
	}
	d.swapchainImages[h] = handles
	return handles, nil
}
