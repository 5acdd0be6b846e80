package vkdriver

import vk "github.com/vulkan-go/vulkan"

// InstanceExtensions lists the instance extensions available on the platform.
func InstanceExtensions() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	orPanic(newError(vk.EnumerateInstanceExtensionProperties("", &count, nil)))
	list := make([]vk.ExtensionProperties, count)
	orPanic(newError(vk.EnumerateInstanceExtensionProperties("", &count, list)))
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions lists the extensions available on gpu.
func DeviceExtensions(gpu vk.PhysicalDevice) (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	orPanic(newError(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)))
	list := make([]vk.ExtensionProperties, count)
	orPanic(newError(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)))
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers lists the instance layers available on the platform.
func ValidationLayers() (names []string, err error) {
	defer checkErr(&err)

	var count uint32
	orPanic(newError(vk.EnumerateInstanceLayerProperties(&count, nil)))
	list := make([]vk.LayerProperties, count)
	orPanic(newError(vk.EnumerateInstanceLayerProperties(&count, list)))
	for _, layer := range list[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}
