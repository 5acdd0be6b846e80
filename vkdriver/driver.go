// Package vkdriver implements vkcube.Driver on top of vulkan-go.
package vkdriver

import (
	"unsafe"

	"github.com/andewx/vkcube"
	vk "github.com/vulkan-go/vulkan"
)

type allocation struct {
	memory vk.DeviceMemory
	size   vk.DeviceSize
}

// Driver owns one instance and at most one logical device at a time.
type Driver struct {
	log *vkcube.Logger

	instance      vk.Instance
	debugCallback vk.DebugReportCallback
	gpu           vk.PhysicalDevice
	device        vk.Device
	memProps      vk.PhysicalDeviceMemoryProperties

	instances       table[vk.Instance]
	surfaces        table[vk.Surface]
	gpus            table[vk.PhysicalDevice]
	devices         table[vk.Device]
	queues          table[vk.Queue]
	swapchains      table[vk.Swapchain]
	images          table[vk.Image]
	views           table[vk.ImageView]
	memories        table[allocation]
	buffers         table[vk.Buffer]
	samplers        table[vk.Sampler]
	renderPasses    table[vk.RenderPass]
	setLayouts      table[vk.DescriptorSetLayout]
	pipelineLayouts table[vk.PipelineLayout]
	caches          table[vk.PipelineCache]
	pipelines       table[vk.Pipeline]
	descriptorPools table[vk.DescriptorPool]
	descriptorSets  table[vk.DescriptorSet]
	framebuffers    table[vk.Framebuffer]
	commandPools    table[vk.CommandPool]
	commandBuffers  table[vk.CommandBuffer]
	fences          table[vk.Fence]
	semaphores      table[vk.Semaphore]

	familyQueues    map[uint32]vkcube.Queue
	swapchainImages map[vkcube.Swapchain][]vkcube.Image
	poolSets        map[vkcube.DescriptorPool][]vkcube.DescriptorSet
}

var _ vkcube.Driver = (*Driver)(nil)

// New returns a driver logging through logger. vk.Init must have been called.
func New(logger *vkcube.Logger) *Driver {
	if logger == nil {
		logger = vkcube.NopLogger()
	}
	return &Driver{
		log:             logger,
		familyQueues:    make(map[uint32]vkcube.Queue),
		swapchainImages: make(map[vkcube.Swapchain][]vkcube.Image),
		poolSets:        make(map[vkcube.DescriptorPool][]vkcube.DescriptorSet),
	}
}

// SurfaceProvider adopts surfaces created by create, typically through the
// windowing library, as driver handles.
func (d *Driver) SurfaceProvider(create func(instance vk.Instance) (vk.Surface, error)) vkcube.SurfaceProvider {
	return func(instance vkcube.Instance) (vkcube.Surface, error) {
		surface, err := create(d.instances.get(uint64(instance)))
		if err != nil {
			return 0, err
		}
		return vkcube.Surface(d.surfaces.put(surface)), nil
	}
}

// ValidationLayers lists the layers installed on the host.
func (d *Driver) ValidationLayers() ([]string, error) {
	return ValidationLayers()
}

// InstanceExtensions lists the instance extensions installed on the host.
func (d *Driver) InstanceExtensions() ([]string, error) {
	return InstanceExtensions()
}

// CreateInstance creates the instance and, with info.Debug, installs the debug
// report callback.
func (d *Driver) CreateInstance(info vkcube.InstanceInfo) (_ vkcube.Instance, err error) {
	defer checkErr(&err)

	extensions := safeStrings(info.Extensions)
	layers := safeStrings(info.Layers)
	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(info.AppName),
			PEngineName:        safeString(info.AppName),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}, nil, &instance)
	orPanic(newError(ret))
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return 0, err
	}
	d.instance = instance

	if info.Debug {
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: d.debugReport,
		}, nil, &d.debugCallback)
		if isError(ret) {
			d.log.Warn.Println("vulkan: debug report callback unavailable:", newError(ret))
		} else {
			d.log.Info.Println("vulkan: debug report callback enabled")
		}
	}
	return vkcube.Instance(d.instances.put(instance)), nil
}

// DestroyInstance removes the debug callback and destroys the instance.
func (d *Driver) DestroyInstance(h vkcube.Instance) {
	instance, ok := d.instances.take(uint64(h))
	if !ok {
		return
	}
	if d.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(instance, d.debugCallback, nil)
		d.debugCallback = vk.NullDebugReportCallback
	}
	vk.DestroyInstance(instance, nil)
	d.instance = nil
}

// debugReport routes validation messages to the driver's logger.
func (d *Driver) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		d.log.Error.Printf("vulkan: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		d.log.Warn.Printf("vulkan: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		d.log.Warn.Printf("vulkan: performance [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		d.log.Info.Printf("vulkan: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

// PhysicalDevices enumerates the GPUs of the instance.
func (d *Driver) PhysicalDevices(h vkcube.Instance) (handles []vkcube.PhysicalDevice, err error) {
	defer checkErr(&err)

	instance := d.instances.get(uint64(h))
	var count uint32
	orPanic(newError(vk.EnumeratePhysicalDevices(instance, &count, nil)))
	gpus := make([]vk.PhysicalDevice, count)
	orPanic(newError(vk.EnumeratePhysicalDevices(instance, &count, gpus)))
	for _, gpu := range gpus[:count] {
		handles = append(handles, d.gpuHandle(gpu))
	}
	return handles, nil
}

// gpuHandle issues one handle per physical device however often they are
// enumerated.
func (d *Driver) gpuHandle(gpu vk.PhysicalDevice) vkcube.PhysicalDevice {
	for h, known := range d.gpus.objs {
		if known == gpu {
			return vkcube.PhysicalDevice(h)
		}
	}
	return vkcube.PhysicalDevice(d.gpus.put(gpu))
}

func (d *Driver) DeviceExtensions(h vkcube.PhysicalDevice) ([]string, error) {
	return DeviceExtensions(d.gpus.get(uint64(h)))
}

// DeviceProperties returns the name and type of gpu.
func (d *Driver) DeviceProperties(h vkcube.PhysicalDevice) vkcube.DeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.gpus.get(uint64(h)), &props)
	props.Deref()
	return vkcube.DeviceProperties{
		Name:       vk.ToString(props.DeviceName[:]),
		Type:       vkcube.DeviceType(props.DeviceType),
		APIVersion: props.ApiVersion,
		VendorID:   props.VendorID,
		DeviceID:   props.DeviceID,
	}
}

func (d *Driver) QueueFamilies(h vkcube.PhysicalDevice) []vkcube.QueueFamily {
	gpu := d.gpus.get(uint64(h))
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	families := make([]vkcube.QueueFamily, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		families = append(families, vkcube.QueueFamily{
			Flags: vkcube.QueueFlags(p.QueueFlags),
			Count: p.QueueCount,
		})
	}
	return families
}

// FormatSupport reports whether format can be sampled under linear tiling and
// under optimal tiling.
func (d *Driver) FormatSupport(h vkcube.PhysicalDevice, format vkcube.Format) vkcube.FormatSupport {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.gpus.get(uint64(h)), vk.Format(format), &props)
	props.Deref()
	sampled := vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit)
	return vkcube.FormatSupport{
		LinearSampled:  props.LinearTilingFeatures&sampled != 0,
		OptimalSampled: props.OptimalTilingFeatures&sampled != 0,
	}
}
