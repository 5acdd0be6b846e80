package vkdriver

import (
	"github.com/andewx/vkcube"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceSupport reports whether family can present to surface.
func (d *Driver) SurfaceSupport(gpu vkcube.PhysicalDevice, family uint32, surface vkcube.Surface) (bool, error) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(d.gpus.get(uint64(gpu)), family, d.surfaces.get(uint64(surface)), &supported)
	if isError(ret) {
		return false, newError(ret)
	}
	return supported.B(), nil
}

func (d *Driver) SurfaceCapabilities(gpu vkcube.PhysicalDevice, surface vkcube.Surface) (vkcube.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(d.gpus.get(uint64(gpu)), d.surfaces.get(uint64(surface)), &caps)
	if isError(ret) {
		return vkcube.SurfaceCapabilities{}, newError(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	return vkcube.SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           fromExtent2D(caps.CurrentExtent),
		SupportedTransforms:     vkcube.SurfaceTransform(caps.SupportedTransforms),
		CurrentTransform:        vkcube.SurfaceTransform(caps.CurrentTransform),
		SupportedCompositeAlpha: vkcube.CompositeAlpha(caps.SupportedCompositeAlpha),
	}, nil
}

// SurfaceFormats lists the color formats the surface accepts.
func (d *Driver) SurfaceFormats(gpu vkcube.PhysicalDevice, surface vkcube.Surface) (formats []vkcube.SurfaceFormat, err error) {
	defer checkErr(&err)

	g, s := d.gpus.get(uint64(gpu)), d.surfaces.get(uint64(surface))
	var count uint32
	orPanic(newError(vk.GetPhysicalDeviceSurfaceFormats(g, s, &count, nil)))
	list := make([]vk.SurfaceFormat, count)
	orPanic(newError(vk.GetPhysicalDeviceSurfaceFormats(g, s, &count, list)))
	for _, f := range list[:count] {
		f.Deref()
		formats = append(formats, vkcube.SurfaceFormat{
			Format:     vkcube.Format(f.Format),
			ColorSpace: vkcube.ColorSpace(f.ColorSpace),
		})
	}
	return formats, nil
}

// PresentModes lists the present modes the surface accepts.
func (d *Driver) PresentModes(gpu vkcube.PhysicalDevice, surface vkcube.Surface) (modes []vkcube.PresentMode, err error) {
	defer checkErr(&err)

	g, s := d.gpus.get(uint64(gpu)), d.surfaces.get(uint64(surface))
	var count uint32
	orPanic(newError(vk.GetPhysicalDeviceSurfacePresentModes(g, s, &count, nil)))
	list := make([]vk.PresentMode, count)
	orPanic(newError(vk.GetPhysicalDeviceSurfacePresentModes(g, s, &count, list)))
	for _, m := range list[:count] {
		modes = append(modes, vkcube.PresentMode(m))
	}
	return modes, nil
}

func (d *Driver) DestroySurface(instance vkcube.Instance, h vkcube.Surface) {
	if surface, ok := d.surfaces.take(uint64(h)); ok {
		vk.DestroySurface(d.instances.get(uint64(instance)), surface, nil)
	}
}

// CreateDevice creates the logical device with one queue per listed family
// and no optional features enabled.
func (d *Driver) CreateDevice(h vkcube.PhysicalDevice, info vkcube.DeviceInfo) (_ vkcube.Device, err error) {
	defer checkErr(&err)

	gpu := d.gpus.get(uint64(h))
	queueInfos := queueCreateInfos(info)
	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)

	var device vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &device)
	orPanic(newError(ret))

	d.gpu = gpu
	d.device = device
	vk.GetPhysicalDeviceMemoryProperties(gpu, &d.memProps)
	d.memProps.Deref()
	return vkcube.Device(d.devices.put(device)), nil
}

// queueCreateInfos asks for one queue of info.QueuePriority per family.
func queueCreateInfos(info vkcube.DeviceInfo) []vk.DeviceQueueCreateInfo {
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(info.QueueFamilies))
	for _, family := range info.QueueFamilies {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{info.QueuePriority},
		})
	}
	return queueInfos
}

// DestroyDevice destroys the device and forgets its queues.
func (d *Driver) DestroyDevice(h vkcube.Device) {
	device, ok := d.devices.take(uint64(h))
	if !ok {
		return
	}
	vk.DestroyDevice(device, nil)
	for family, q := range d.familyQueues {
		d.queues.take(uint64(q))
		delete(d.familyQueues, family)
	}
	d.device = nil
}

// Queue returns queue 0 of family. Repeated calls return the same handle.
func (d *Driver) Queue(family uint32) vkcube.Queue {
	if h, ok := d.familyQueues[family]; ok {
		return h
	}
	var queue vk.Queue
	vk.GetDeviceQueue(d.device, family, 0, &queue)
	h := vkcube.Queue(d.queues.put(queue))
	d.familyQueues[family] = h
	return h
}

// DeviceWaitIdle blocks until every queue of the device is idle. It is a no-op
// without a device.
func (d *Driver) DeviceWaitIdle() error {
	if d.device == nil {
		return nil
	}
	return newError(vk.DeviceWaitIdle(d.device))
}

// QueueWaitIdle blocks until the queue is idle.
func (d *Driver) QueueWaitIdle(h vkcube.Queue) error {
	return newError(vk.QueueWaitIdle(d.queues.get(uint64(h))))
}
